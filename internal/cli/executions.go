package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/viant/composer/service/dao"
	"github.com/viant/composer/service/dao/criteria"
)

// newExecutionsCommand inspects the execution registry; it is useful with a
// persistent store (store.kind: fs).
func newExecutionsCommand(options *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "executions",
		Aliases: []string{"exec"},
		Short:   "Inspect recorded executions",
	}
	var statuses []string
	var templateID, parentID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List executions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			srv, err := options.service(ctx)
			if err != nil {
				return err
			}
			defer srv.Close()
			var parameters []*dao.Parameter
			if len(statuses) > 0 {
				for i := range statuses {
					statuses[i] = strings.ToUpper(statuses[i])
				}
				parameters = append(parameters, dao.NewParameter(criteria.Status, statuses...))
			}
			if templateID != "" {
				parameters = append(parameters, dao.NewParameter(criteria.TemplateID, templateID))
			}
			if parentID != "" {
				parameters = append(parameters, dao.NewParameter(criteria.ParentID, parentID))
			}
			executions, err := srv.ListExecutions(ctx, parameters...)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTEMPLATE\tSTATUS\tCOMPLETED\tSTARTED")
			for _, item := range executions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n", item.ID, item.TemplateID, item.Status,
					item.Progress.Completed, item.Progress.Total, item.StartTime.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	list.Flags().StringSliceVar(&statuses, "status", nil, "Filter by status (RUNNING, COMPLETED, FAILED)")
	list.Flags().StringVar(&templateID, "template", "", "Filter by template id")
	list.Flags().StringVar(&parentID, "parent", "", "Filter by parent execution id")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print an execution snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			srv, err := options.service(ctx)
			if err != nil {
				return err
			}
			defer srv.Close()
			snapshot, err := srv.GetExecution(ctx, args[0])
			if err != nil {
				return err
			}
			return options.print(cmd.OutOrStdout(), snapshot)
		},
	})
	return cmd
}
