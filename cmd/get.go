package cmd

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NamanBalaji/vidloader/internal/item"
	"github.com/NamanBalaji/vidloader/internal/state"
	"github.com/NamanBalaji/vidloader/internal/transport"
)

var getOpts struct {
	id      string
	title   string
	key     string
	headers []string
	cookies string
}

var getCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Download a stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		header, err := requestHeader(getOpts.headers, getOpts.cookies)
		if err != nil {
			return err
		}

		id := getOpts.id
		if id == "" {
			rec, err := a.engine.Add(args[0], getOpts.title, header)
			if err != nil {
				return err
			}
			id = rec.Identifier()
		} else {
			rec, err := item.New(id, args[0], state.Of(state.Waiting))
			if err != nil {
				return err
			}
			if getOpts.title != "" {
				rec = rec.WithTitle(getOpts.title)
			}
			if err := a.engine.Register(rec.WithHeader(header)); err != nil {
				return err
			}
		}

		if getOpts.key != "" {
			err = a.engine.Prefetch(id, getOpts.key)
		} else {
			err = a.engine.Start(id)
		}
		if err != nil {
			return err
		}

		return runUntilDone(cmd.Context(), id)
	},
}

func init() {
	getCmd.Flags().StringVar(&getOpts.id, "id", "", "Identifier for the item (generated when empty)")
	getCmd.Flags().StringVar(&getOpts.title, "title", "", "Display title")
	getCmd.Flags().StringVar(&getOpts.key, "key", "", "URL of the decryption key to fetch before the stream")
	getCmd.Flags().StringArrayVar(&getOpts.headers, "header", nil, "Request header as key=value (repeatable)")
	getCmd.Flags().StringVar(&getOpts.cookies, "cookies", "", "JSON file with cookies to send")
}

// requestHeader builds the per-item header from --header and --cookies.
func requestHeader(pairs []string, cookieFile string) (map[string]string, error) {
	header := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid header %q, expected key=value", pair)
		}
		header[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if cookieFile != "" {
		data, err := os.ReadFile(cookieFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read cookies: %w", err)
		}
		cookies, err := transport.ParseCookies(data)
		if err != nil {
			return nil, err
		}
		maps.Copy(header, transport.CookieHeader(cookies))
	}

	return header, nil
}
