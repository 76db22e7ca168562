package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chat-hub/client"
	"chat-hub/domain"
	"chat-hub/domain/event"

	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `envconfig:"CHAT_SERVER_URL" default:"http://localhost:8080"`
	Username  string `envconfig:"CHAT_USERNAME" required:"true"`
	Password  string `envconfig:"CHAT_PASSWORD" required:"true"`
	Colours   bool   `envconfig:"CHAT_COLOURS" default:"true"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"INFO"`
}

const usage = `usage: client <command>
  register                      create the account
  chats                         list your chats
  create <name> [user_id...]    open a chat
  join <chat_id>                join a chat
  send <chat_id> <text...>      post a message
  history <chat_id>             print the log of a chat
  listen                        print live events until Ctrl+C`

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if len(args) == 0 {
		return exitConfig, fmt.Errorf("missing command\n%s", usage)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	color.Enable = config.Colours

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(config.ServerURL, nil)

	if args[0] == "register" {
		user, err := c.Register(ctx, config.Username, config.Password)
		if err != nil {
			return exitRuntime, err
		}
		color.Green.Printf("Registered %s as %s\n", user.Username, user.ID)
		return exitOK, nil
	}

	// 3. Every other command needs a token.
	creds, err := c.Login(ctx, config.Username, config.Password)
	if err != nil {
		return exitRuntime, fmt.Errorf("login failed: %w", err)
	}
	log.Debug("Logged in", "user_id", creds.UserID)

	switch args[0] {
	case "chats":
		chats, err := c.Chats(ctx)
		if err != nil {
			return exitRuntime, err
		}
		printChats(chats)
	case "create":
		if len(args) < 2 {
			return exitConfig, fmt.Errorf("create needs a name\n%s", usage)
		}
		participants := make([]domain.UserID, 0, len(args)-2)
		for _, p := range args[2:] {
			participants = append(participants, domain.UserID(p))
		}
		chat, err := c.CreateChat(ctx, args[1], participants...)
		if err != nil {
			return exitRuntime, err
		}
		printChats([]domain.Chat{chat})
	case "history":
		if len(args) != 2 {
			return exitConfig, fmt.Errorf("history needs a chat id\n%s", usage)
		}
		messages, err := c.History(ctx, domain.ChatID(args[1]))
		if err != nil {
			return exitRuntime, err
		}
		for _, m := range messages {
			printMessage(m)
		}
	case "join", "send":
		evt, err := inboundFrom(args)
		if err != nil {
			return exitConfig, err
		}
		return fire(ctx, c, evt)
	case "listen":
		return listen(ctx, c, creds.UserID)
	default:
		return exitConfig, fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
	return exitOK, nil
}

func inboundFrom(args []string) (event.Inbound, error) {
	switch {
	case args[0] == "join" && len(args) == 2:
		return event.JoinChat{ChatID: domain.ChatID(args[1])}, nil
	case args[0] == "send" && len(args) >= 3:
		return event.SendMessage{ChatID: domain.ChatID(args[1]), Content: strings.Join(args[2:], " ")}, nil
	default:
		return nil, fmt.Errorf("wrong arguments for %s\n%s", args[0], usage)
	}
}

// fire sends one event then waits briefly for its echo.
// The server never answers a rejected event, so silence is reported as such.
func fire(ctx context.Context, c *client.Client, evt event.Inbound) (int, error) {
	session, err := c.Dial(ctx)
	if err != nil {
		return exitRuntime, err
	}
	defer session.Close()

	if err := session.Send(evt); err != nil {
		return exitRuntime, err
	}

	echo := make(chan event.Outbound, 1)
	go func() {
		if out, err := session.Receive(); err == nil {
			echo <- out
		}
	}()
	select {
	case out := <-echo:
		printEvent(out)
	case <-time.After(2 * time.Second):
		color.Yellow.Println("No echo: the server dropped the event")
	case <-ctx.Done():
	}
	return exitOK, nil
}

func listen(ctx context.Context, c *client.Client, me domain.UserID) (int, error) {
	session, err := c.Dial(ctx)
	if err != nil {
		return exitRuntime, err
	}
	go func() {
		<-ctx.Done()
		_ = session.Close()
	}()

	color.Cyan.Printf(">>> Listening as %s (Ctrl+C to quit)...\n", me)
	for {
		out, err := session.Receive()
		if err != nil {
			// Normal exit if the user triggered a shutdown.
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("session error: %w", err)
		}
		printEvent(out)
	}
}

func printEvent(out event.Outbound) {
	switch e := out.(type) {
	case event.MessageSent:
		printMessage(e.Message)
	case event.ChatCreated:
		color.Green.Printf("+ chat %s %q %v\n", e.Chat.ID, e.Chat.Name, e.Chat.MemberList())
	case event.ChatJoined:
		color.Blue.Printf("> %s joined %q\n", e.UserID, e.Chat.Name)
	}
}

func printMessage(m domain.Message) {
	header := color.New(color.FgGray).Render(fmt.Sprintf("[%s] %s", m.CreatedAt.Local().Format(time.TimeOnly), m.ChatID))
	fmt.Printf("%s %s: %s\n", header, color.Bold.Render(string(m.SenderID)), m.Content)
}

func printChats(chats []domain.Chat) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Group", "Members"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, chat := range chats {
		members := make([]string, 0, len(chat.Participants))
		for _, m := range chat.MemberList() {
			members = append(members, string(m))
		}
		table.Append([]string{string(chat.ID), chat.Name, fmt.Sprint(chat.IsGroup), strings.Join(members, ", ")})
	}
	table.Render()
}
