package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wikitext-serializer",
	Short: "An HTML to MediaWiki wikitext round-trip serializer",
	Long: `Wikitext Serializer converts an HTML DOM annotated with round-trip
metadata (data-parsoid attributes) back into MediaWiki wikitext, splicing
whitespace and comments verbatim from the original source when document
source ranges are available.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {}
