package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nexchat/nexchat-go/nexchat"
	"github.com/nexchat/nexchat-go/nexchat/stomp"
)

var chatCmd = &cobra.Command{
	Use:   "chat <roomId>",
	Short: "Open a live session in a room",
	Long: `Connects to the room's topic, prints stored history followed by live
messages, and sends every line you type. /quit (or Ctrl-C) leaves the room.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID := args[0]

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := newLogger()
		creds := credentials()

		cfg := stomp.DefaultConfig()
		cfg.URL = viper.GetString(socketURLKey)
		dialer := stomp.NewDialer(cfg)
		dialer.SetLogger(logger)

		store := nexchat.NewStore()
		store.OnAppend(func(chatID string, msgs []nexchat.Message) {
			for _, m := range msgs {
				printMessage(m)
			}
		})

		mgr := nexchat.NewSessionManager(dialer, restClient(), creds, store,
			nexchat.WithLogger(logger))
		defer mgr.Close()

		fmt.Printf("Joining %s as %s...\n", roomID, displayName(creds))
		mgr.Select(ctx, nexchat.RoomChatID(roomID))

		inputCh := make(chan string)
		go readInput(inputCh)

		for {
			select {
			case <-ctx.Done():
				fmt.Println("\nLeaving room...")
				return nil
			case line, ok := <-inputCh:
				if !ok {
					return nil
				}
				msg := strings.TrimSpace(line)
				if msg == "" {
					continue
				}
				if msg == "/quit" {
					fmt.Println("Bye!")
					return nil
				}
				mgr.Send(ctx, msg)
			}
		}
	},
}

func readInput(dst chan<- string) {
	defer close(dst)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		dst <- scanner.Text()
	}
}

func printMessage(m nexchat.Message) {
	if m.From == nexchat.OriginSystem {
		fmt.Printf("*** %s\n", m.Text)
		return
	}
	stamp := time.UnixMilli(m.CreatedAt).Local().Format("15:04")
	sender := m.Sender
	if m.From == nexchat.OriginMe {
		sender = "you"
	}
	line := fmt.Sprintf("%s %s: %s", stamp, sender, m.Text)
	if m.Attachment != nil {
		line += fmt.Sprintf(" [file %s, %s]", m.Attachment.Name, formatFileSize(m.Attachment.Size))
	}
	fmt.Println(line)
}

func formatFileSize(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}
	kb := float64(size) / 1024
	if kb < 1024 {
		return fmt.Sprintf("%.0f KB", kb)
	}
	return fmt.Sprintf("%.1f MB", kb/1024)
}

func displayName(creds nexchat.Credentials) string {
	if name := creds.Username(); name != "" {
		return name
	}
	return "anonymous"
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
