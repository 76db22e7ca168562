// Package client talks to a chat-hub server over its HTTP and websocket endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"chat-hub/domain"
	"chat-hub/domain/event"

	"github.com/gorilla/websocket"
)

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// WithToken returns a copy authenticated with token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// StatusError is returned for any non 2xx answer.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server answered %d: %s", e.Code, e.Message)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, username, password string) (domain.User, error) {
	var user domain.User
	err := c.do(ctx, http.MethodPost, "/register", credentials{username, password}, &user)
	return user, err
}

// Login stores the returned token on the client.
func (c *Client) Login(ctx context.Context, username, password string) (domain.Credentials, error) {
	var creds domain.Credentials
	if err := c.do(ctx, http.MethodPost, "/login", credentials{username, password}, &creds); err != nil {
		return domain.Credentials{}, err
	}
	c.token = creds.Token
	return creds, nil
}

func (c *Client) Chats(ctx context.Context) ([]domain.Chat, error) {
	var chats []domain.Chat
	err := c.do(ctx, http.MethodGet, "/chats", nil, &chats)
	return chats, err
}

func (c *Client) CreateChat(ctx context.Context, name string, participants ...domain.UserID) (domain.Chat, error) {
	var chat domain.Chat
	err := c.do(ctx, http.MethodPost, "/chats", event.CreateChat{Name: name, Participants: participants}, &chat)
	return chat, err
}

func (c *Client) History(ctx context.Context, chatID domain.ChatID) ([]domain.Message, error) {
	var messages []domain.Message
	err := c.do(ctx, http.MethodGet, "/chats/"+url.PathEscape(string(chatID))+"/messages", nil, &messages)
	return messages, err
}

// Dial opens a websocket session with the current token.
func (c *Client) Dial(ctx context.Context) (*Session, error) {
	wsURL, err := url.Parse(c.baseURL + "/ws")
	if err != nil {
		return nil, err
	}
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), header)
	if err != nil {
		if resp != nil {
			return nil, &StatusError{Code: resp.StatusCode, Message: err.Error()}
		}
		return nil, err
	}
	return &Session{conn: conn}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var problem struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&problem)
		return &StatusError{Code: resp.StatusCode, Message: problem.Error}
	}
	if target == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// Session is one live websocket. Send and Receive may be used from two goroutines.
type Session struct {
	conn *websocket.Conn
}

func (s *Session) Send(evt event.Inbound) error {
	frame, err := event.EncodeInbound(evt)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

// Receive blocks until the next server event.
func (s *Session) Receive() (event.Outbound, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return event.DecodeOutbound(data)
}

func (s *Session) Close() error {
	closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteMessage(websocket.CloseMessage, closing)
	return s.conn.Close()
}
