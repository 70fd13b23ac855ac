// Package record provides the shared data contract for the team dashboard:
// employee and task records, the ordered status workflows they move through,
// and the collection type the store, loader and engines exchange.
//
// # Overview
//
// A Record is a domain entity with an externally assigned, stable string ID
// and a flat mapping of named fields. Workflow records carry a "status" field
// whose value is drawn from the ordered status set of their Kind.
//
// A Collection is an ordered sequence of records keyed by ID. IDs are unique
// within a collection and insertion order is preserved.
//
// # JSON Shape
//
// Records serialize as flat JSON objects, the same shape the external dataset
// uses:
//
//	{"id": "1", "title": "Prepare Q3 report", "status": "To Do", "assignee": "3"}
//
// # Usage Example
//
//	tasks := record.Collection{
//		record.New("1", map[string]any{"title": "Prepare Q3 report", "status": "To Do"}),
//	}
//
//	if err := tasks.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
//	if err := record.ValidateStatus(record.KindTasks, "In Progress"); err != nil {
//		log.Fatal(err)
//	}
package record
