package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/net/html"

	"github.com/clems4ever/wikitext-serializer/serializer"
)

var (
	sourcePath string
	pageName   string
	traceFlags []string
	configPath string
)

// serializeCmd represents the serialize command
var serializeCmd = &cobra.Command{
	Use:   "serialize [html_file]",
	Short: "Serialize an annotated HTML file to wikitext",
	Long: `Serialize parses an HTML document carrying data-parsoid round-trip
metadata and prints the reconstructed wikitext. Passing the original
wikitext via --source enables verbatim separator splicing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			viper.SetConfigFile(configPath)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}
			if pageName == "" {
				pageName = viper.GetString("page.name")
			}
			if sourcePath == "" {
				sourcePath = viper.GetString("page.source")
			}
			if len(traceFlags) == 0 {
				traceFlags = viper.GetStringSlice("trace")
			}
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open html file: %w", err)
		}
		defer f.Close()

		doc, err := html.Parse(f)
		if err != nil {
			return fmt.Errorf("failed to parse html: %w", err)
		}

		src := ""
		if sourcePath != "" {
			b, err := os.ReadFile(sourcePath)
			if err != nil {
				return fmt.Errorf("failed to read source file: %w", err)
			}
			src = string(b)
		}

		flags := make(map[string]bool, len(traceFlags))
		for _, tf := range traceFlags {
			flags[tf] = true
		}
		logger := zerolog.Nop()
		if len(flags) > 0 {
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(zerolog.DebugLevel).With().Timestamp().Logger()
		}

		env := &serializer.Env{
			Page: serializer.Page{Name: pageName, Src: src},
			Conf: serializer.Conf{
				Parsoid: serializer.ParsoidConf{TraceFlags: flags},
			},
			Logger: logger,
		}

		body := findBody(doc)
		if body == nil {
			body = doc
		}
		out, err := serializer.SerializeToString(body, serializer.Options{Env: env})
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serializeCmd)

	serializeCmd.Flags().StringVarP(&sourcePath, "source", "s", "", "Path to the original wikitext source")
	serializeCmd.Flags().StringVarP(&pageName, "page-name", "p", "", "Page title")
	serializeCmd.Flags().StringSliceVarP(&traceFlags, "trace", "t", nil, "Trace flags (e.g. wts:sep,wts:escape)")
	serializeCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a config file")
}
