package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reelpipe/uplink/internal/category"
)

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List valid file categories",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%-24s %-8s %s\n", "CATEGORY", "TAG", "FOLDER")
			for _, c := range category.All {
				fmt.Printf("%-24s %-8s %s\n", c, c.Tag(), c.Group())
			}
		},
	}
}
