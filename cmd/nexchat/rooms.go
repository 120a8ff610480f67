package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List your rooms and direct chats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rooms, err := restClient().UserChats(cmd.Context())
		if err != nil {
			return fmt.Errorf("list rooms: %w", err)
		}
		if len(rooms) == 0 {
			fmt.Println("No rooms yet. Create one with: nexchat room create <roomId>")
			return nil
		}
		for _, r := range rooms {
			name := r.Name
			if name == "" {
				name = r.RoomID
			}
			kind := "room"
			if r.OneToOne {
				kind = "dm"
			}
			line := fmt.Sprintf("%-4s %-24s %s", kind, name, r.RoomID)
			if r.UnreadCount > 0 {
				line += fmt.Sprintf("  (%d unread)", r.UnreadCount)
			}
			preview := r.LastMessage
			if preview == "" && len(r.Messages) > 0 {
				preview = r.Messages[len(r.Messages)-1].Content
			}
			if preview != "" {
				line += "  - " + preview
			}
			fmt.Println(line)
		}
		return nil
	},
}

var roomCmd = &cobra.Command{
	Use:   "room",
	Short: "Create or join rooms",
}

var roomCreateCmd = &cobra.Command{
	Use:   "create <roomId>",
	Short: "Create a room with the chosen id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := restClient().CreateRoom(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("create room: %w", err)
		}
		fmt.Println("Room created. Share the Room ID to invite others.")
		return nil
	},
}

var roomJoinCmd = &cobra.Command{
	Use:   "join <roomId>",
	Short: "Join an existing room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := restClient().JoinRoom(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("join room: %w", err)
		}
		fmt.Println("Joined the room. Open it with: nexchat chat", args[0])
		return nil
	},
}

var dmCmd = &cobra.Command{
	Use:   "dm <username>",
	Short: "Open (or create) the direct chat with a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := restClient().CreateOneToOneRoom(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("direct room: %w", err)
		}
		fmt.Println("Direct room:", resp.RoomID)
		fmt.Println("Open it with: nexchat chat", resp.RoomID)
		return nil
	},
}

var usersCmd = &cobra.Command{
	Use:   "users <query>",
	Short: "Search users by name or email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := restClient().SearchUsers(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("search users: %w", err)
		}
		if len(users) == 0 {
			fmt.Println("No users found.")
			return nil
		}
		for _, u := range users {
			name := u.UserName
			if name == "" {
				name = u.Name
			}
			if u.Email != "" {
				fmt.Printf("%s <%s>\n", name, u.Email)
			} else {
				fmt.Println(name)
			}
		}
		return nil
	},
}

func init() {
	roomCmd.AddCommand(roomCreateCmd, roomJoinCmd)
	rootCmd.AddCommand(roomsCmd, roomCmd, dmCmd, usersCmd)
}
