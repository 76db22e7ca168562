package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chat-hub/client"
	"chat-hub/domain"
	"chat-hub/domain/event"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

// BaseSuite drives a deployed server through the public client.
type BaseSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerURL == "" {
		s.T().Skip("E2E_SERVER_URL is not set")
	}
}

// Step prints a colorized header then runs fn as a subtest.
func (s *BaseSuite) Step(name string, fn func()) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
	s.Run(name, fn)
}

// NewUser registers and logs in a throwaway account.
// Usernames are random so suites can run against a long-lived server.
func (s *BaseSuite) NewUser(ctx context.Context, prefix string) (*client.Client, domain.Credentials) {
	username := prefix + uuid.NewString()[:8]
	password := "E2e-" + uuid.NewString()

	c := client.New(s.Config.ServerURL, nil)
	_, err := c.Register(ctx, username, password)
	s.Require().NoError(err, "register %s", username)
	creds, err := c.Login(ctx, username, password)
	s.Require().NoError(err, "login %s", username)
	return c, creds
}

// Next waits for the next event on session.
func (s *BaseSuite) Next(session *client.Session, timeout time.Duration) event.Outbound {
	received := make(chan event.Outbound, 1)
	failed := make(chan error, 1)
	go func() {
		out, err := session.Receive()
		if err != nil {
			failed <- err
			return
		}
		received <- out
	}()

	select {
	case out := <-received:
		if s.Config.DebugJSON {
			data, _ := json.MarshalIndent(out, "", "  ")
			s.T().Logf("EVENT %s:\n%s", out.Kind(), data)
		}
		return out
	case err := <-failed:
		s.Require().NoError(err)
	case <-time.After(timeout):
		s.Require().FailNow("no event received", "after %s", timeout)
	}
	return nil
}
