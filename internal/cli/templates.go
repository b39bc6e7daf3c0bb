package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/composer/service/dao/template/loader"
)

func newTemplatesCommand(options *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template"},
		Short:   "Inspect and validate composition templates",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			srv, err := options.service(ctx)
			if err != nil {
				return err
			}
			defer srv.Close()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCOMPONENTS\tAGGREGATION")
			for template := range srv.Templates() {
				aggregation := ""
				if template.Aggregation != nil {
					aggregation = string(template.Aggregation.Type())
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", template.ID, template.Name, len(template.Components), aggregation)
			}
			return w.Flush()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print a registered template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			srv, err := options.service(ctx)
			if err != nil {
				return err
			}
			defer srv.Close()
			template, err := srv.GetTemplate(ctx, args[0])
			if err != nil {
				return err
			}
			return options.print(cmd.OutOrStdout(), template)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "validate <url>",
		Short: "Decode and validate a template document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := afs.New().DownloadWithURL(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			templates, err := loader.Decode(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			for _, template := range templates {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d components)\n", template.ID, len(template.Components))
			}
			return nil
		},
	})
	return cmd
}
