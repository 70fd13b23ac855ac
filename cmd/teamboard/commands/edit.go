package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dyluth/teamboard/internal/editor"
	"github.com/dyluth/teamboard/internal/printer"
	"github.com/dyluth/teamboard/pkg/record"
	"github.com/dyluth/teamboard/pkg/store"
	"github.com/spf13/cobra"
)

var (
	editPhone    string
	editTelegram string
	editYes      bool
)

var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit an employee's contact details",
	Long: `Edit the phone number and Telegram handle of an employee.

Only the fields given as flags are changed. The save is confirmed
interactively unless --yes is passed; declining leaves the record untouched.

Examples:
  teamboard edit 3 --phone "+1 555 0199"
  teamboard edit 3 --telegram @new_handle --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editPhone, "phone", "", "New phone number")
	editCmd.Flags().StringVar(&editTelegram, "telegram", "", "New Telegram handle")
	editCmd.Flags().BoolVarP(&editYes, "yes", "y", false, "Save without asking for confirmation")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id := args[0]

	changes := map[string]string{}
	if cmd.Flags().Changed("phone") {
		changes["phone"] = editPhone
	}
	if cmd.Flags().Changed("telegram") {
		changes["telegram"] = editTelegram
	}
	if len(changes) == 0 {
		return printer.Error(
			"nothing to edit",
			"No fields were given.",
			[]string{"Pass --phone and/or --telegram"},
		)
	}

	a, err := openApp(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	e, err := a.engine(ctx, record.KindEmployees)
	if err != nil {
		return loadFailure(record.KindEmployees, err)
	}

	var dialog editor.Dialog = newPromptDialog(cmd.InOrStdin(), cmd.OutOrStdout())
	if editYes {
		dialog = editor.DialogFunc(func(context.Context, string, string) (bool, error) { return true, nil })
	}
	session := editor.NewSession(e, dialog)

	if err := session.BeginEdit(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return printer.ErrorWithContext(
				"Employee not found",
				fmt.Sprintf("No Employee with ID '%s' exists.", id),
				map[string]string{"Instance": a.cfg.Instance},
				[]string{"List available records:\n  teamboard list employees"},
			)
		}
		return err
	}
	for field, value := range changes {
		if err := session.SetDraft(field, value); err != nil {
			return err
		}
	}

	if len(session.Changed()) == 0 {
		_ = session.CancelEdit()
		printer.Info("No changes to save\n")
		return nil
	}

	saved, err := session.RequestSave(ctx)
	if err != nil {
		_ = session.CancelEdit()
		return printer.Error("failed to save changes", err.Error(), []string{"Retry the edit"})
	}
	if !saved {
		_ = session.CancelEdit()
		printer.Info("Changes discarded\n")
		return nil
	}

	r, err := e.Record(id)
	if err != nil {
		return err
	}
	printer.Success("Saved %s\n", r.DisplayName())
	return nil
}

// promptDialog asks for confirmation on a terminal.
type promptDialog struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptDialog(in io.Reader, out io.Writer) *promptDialog {
	return &promptDialog{in: bufio.NewReader(in), out: out}
}

func (d *promptDialog) Confirm(ctx context.Context, title, message string) (bool, error) {
	fmt.Fprintf(d.out, "%s\n%s [y/N]: ", title, message)

	line, err := d.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
