package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"postboard/client"
	"postboard/composer"
	"postboard/composer/tui"
)

const requestTimeout = 10 * time.Second

type options struct {
	api         string
	postID      int
	header      string
	placeholder string
	logFile     string
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:          "composer",
		Short:        "Write a response to a postboard post",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(opts.logFile)
			if err != nil {
				return err
			}
			defer log.Sync()

			api := client.New(opts.api)
			if opts.postID == 0 {
				if opts.postID, err = latestPost(cmd.Context(), api); err != nil {
					return err
				}
			}

			m := tui.New(composer.Options{
				Header:      opts.header,
				Placeholder: opts.placeholder,
				OnComplete:  submit(api, opts.postID, log),
			}, tui.DefaultTheme())

			if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
				return err
			}
			if m.Saved() {
				fmt.Fprintf(cmd.OutOrStdout(), "response posted to post %d\n", opts.postID)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.api, "api", getEnv("POSTBOARD_API", "http://localhost:8080"), "postboard server URL")
	flags.IntVar(&opts.postID, "post", 0, "post to respond to (defaults to the newest post)")
	flags.StringVar(&opts.header, "header", "New response", "title shown above the form")
	flags.StringVar(&opts.placeholder, "placeholder", "Say something", "hint shown in the empty message field")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file")
	return cmd
}

// submit returns the screen's completion callback. The server's answer decides
// whether the screen closes; a refused response leaves it open without a
// message.
func submit(api *client.Client, postID int, log *zap.Logger) composer.CompleteFunc {
	return func(author, message string) bool {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		resp, err := api.CreateResponse(ctx, postID, author, message)
		var apiErr *client.APIError
		switch {
		case errors.As(err, &apiErr):
			log.Info("response rejected", zap.Int("post_id", postID), zap.Int("status", apiErr.Status), zap.String("error", apiErr.Message))
			return false
		case err != nil:
			log.Error("create response failed", zap.Int("post_id", postID), zap.Error(err))
			return false
		}
		log.Info("response created", zap.Int("post_id", postID), zap.Int("response_id", resp.ID))
		return true
	}
}

func latestPost(ctx context.Context, api *client.Client) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	posts, err := api.ListPosts(ctx)
	if err != nil {
		return 0, fmt.Errorf("error listing posts: %w", err)
	}
	if len(posts) == 0 {
		return 0, errors.New("there are no posts to respond to")
	}
	return posts[0].ID, nil
}

// newLogger keeps logs off the terminal, which belongs to the form.
func newLogger(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
