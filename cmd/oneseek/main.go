// Command oneseek is a development CLI for the chat-session engine: it
// sends one query against a running backend and prints the assistant
// response as it streams.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/backend"
	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/chat"
	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/config"
	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/logger"
	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/session"
	"github.com/robinandreeklund-collab/oneseekv1-sub002/pkg/store"
)

var (
	cfgFile  string
	threadID string
	reload   bool
)

var rootCmd = &cobra.Command{
	Use:   "oneseek [query]",
	Short: "Stream one chat turn against a OneSeek backend",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := logger.Init(); err != nil {
			return err
		}
		defer logger.Close()

		storeClient := store.NewClientWithTimeout(settings.Store.URL, settings.Store.Timeout)
		backendClient := backend.NewClientWithTimeout(settings.Backend.URL, settings.Backend.Timeout)
		ctrl := session.NewController(backendClient, storeClient, storeClient, registryFromConfig(settings))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if reload {
			if threadID == "" {
				return fmt.Errorf("--reload requires --thread")
			}
			if _, err := ctrl.RestoreThread(ctx, threadID); err != nil {
				return err
			}
			return runTurn(ctx, ctrl, storeClient, func() (session.Result, error) {
				return ctrl.Reload(ctx, threadID)
			})
		}

		if len(args) == 0 {
			return fmt.Errorf("query is required unless --reload is set")
		}
		return runTurn(ctx, ctrl, storeClient, func() (session.Result, error) {
			return ctrl.Send(ctx, session.SendOptions{ThreadID: threadID, Query: args[0]})
		})
	},
}

// runTurn runs one turn while a watcher goroutine prints render-view
// updates as they arrive, then summarizes the thread and any job the
// turn left running.
func runTurn(ctx context.Context, ctrl *session.Controller, storeClient *store.Client, run func() (session.Result, error)) error {
	watchCtx, stopWatch := context.WithCancel(ctx)
	go watchUpdates(watchCtx, ctrl)

	result, err := run()
	stopWatch()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("thread: %s\n", result.ThreadID)
	fmt.Printf("status: %s\n", result.Status)
	if result.AssistantMessageID != "" {
		fmt.Printf("message: %s\n", result.AssistantMessageID)
	}

	if thread, err := storeClient.Thread(context.Background(), result.ThreadID); err == nil {
		title := thread.Title
		if thread.Visibility == chat.VisibilityPublic {
			title += " (public)"
		}
		fmt.Printf("title: %s\n", title)
		if thread.AllowComments {
			fmt.Println("comments: enabled")
		}
	}

	for _, job := range ctrl.Jobs().ActiveJobs() {
		fmt.Printf("job in flight: %s (task %s)\n", job.Kind, job.TaskID)
	}
	return nil
}

func watchUpdates(ctx context.Context, ctrl *session.Controller) {
	printed := 0
	for {
		select {
		case <-ctx.Done():
			return
		case threadID := <-ctrl.Updates():
			messages, exists := ctrl.Transcript(threadID)
			if !exists || len(messages) == 0 {
				continue
			}
			last := messages[len(messages)-1]
			if !last.IsAssistant() {
				continue
			}
			text := last.Text()
			if len(text) > printed {
				fmt.Print(text[printed:])
				printed = len(text)
			}
		}
	}
}

func registryFromConfig(settings *config.Settings) *chat.ToolRegistry {
	registry := chat.DefaultToolRegistry()
	for _, name := range settings.Tools.Visible {
		if _, known := registry.Definition(name); !known {
			registry.Register(chat.ToolDefinition{Name: name, RendersUI: true})
		}
	}
	return registry
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./.oneseek/settings.yaml)")
	rootCmd.Flags().StringVar(&threadID, "thread", "", "existing thread id to continue")
	rootCmd.Flags().BoolVar(&reload, "reload", false, "restore the thread and re-run its last turn")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
