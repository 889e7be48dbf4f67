package main

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slackbroker/broker"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name      string
		arguments []string
		env       map[string]string
		check     func(t *testing.T, args Args)
		wantErr   bool
	}{
		{
			name:      "defaults",
			arguments: []string{"--token", "xoxb-1"},
			check: func(t *testing.T, args Args) {
				assert.Equal(t, "xoxb-1", args.Token)
				assert.Equal(t, "https://slack.com/api", args.APIURL)
				assert.Equal(t, 30*time.Second, args.HTTPTimeout)
				assert.Equal(t, 0, args.MaxWorkers)
				assert.Equal(t, float64(0), args.RateLimit)
				assert.Equal(t, 1, args.RateBurst)
				assert.False(t, args.Reconnect)
				assert.Equal(t, time.Minute, args.ReconnectMaxInterval)
				assert.Equal(t, 30*time.Second, args.PingInterval)
				assert.Equal(t, slog.LevelInfo, args.LogLevel)
				assert.Empty(t, args.History)
				assert.True(t, args.Validate())
			},
		},
		{
			name: "flags",
			arguments: []string{
				"--token", "xoxb-2",
				"--api-url", "http://localhost:9000/api",
				"--http-timeout", "5s",
				"--max-workers", "4",
				"--rate-limit", "2.5",
				"--rate-burst", "3",
				"--reconnect",
				"--ping-interval", "0",
				"--log-level", "debug",
				"--history", "C1,C2",
			},
			check: func(t *testing.T, args Args) {
				assert.Equal(t, "http://localhost:9000/api", args.APIURL)
				assert.Equal(t, 5*time.Second, args.HTTPTimeout)
				assert.Equal(t, 4, args.MaxWorkers)
				assert.Equal(t, 2.5, args.RateLimit)
				assert.Equal(t, 3, args.RateBurst)
				assert.True(t, args.Reconnect)
				assert.Equal(t, time.Duration(0), args.PingInterval)
				assert.Equal(t, slog.LevelDebug, args.LogLevel)
				assert.Equal(t, []string{"C1", "C2"}, args.History)
			},
		},
		{
			name:      "env",
			arguments: []string{},
			env: map[string]string{
				"SLACKBROKER_TOKEN":       "xoxb-env",
				"SLACKBROKER_MAX_WORKERS": "8",
			},
			check: func(t *testing.T, args Args) {
				assert.Equal(t, "xoxb-env", args.Token)
				assert.Equal(t, 8, args.MaxWorkers)
			},
		},
		{
			name:      "flag overrides env",
			arguments: []string{"--token", "xoxb-flag"},
			env:       map[string]string{"SLACKBROKER_TOKEN": "xoxb-env"},
			check: func(t *testing.T, args Args) {
				assert.Equal(t, "xoxb-flag", args.Token)
			},
		},
		{
			name:      "missing token",
			arguments: []string{},
			check: func(t *testing.T, args Args) {
				assert.False(t, args.Validate())
			},
		},
		{
			name:      "invalid log level",
			arguments: []string{"--log-level", "loud"},
			wantErr:   true,
		},
		{
			name:      "unknown flag",
			arguments: []string{"--nope"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			args, err := ParseArgs(tt.arguments)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, args)
		})
	}
}

func TestArgs_InitialRequests(t *testing.T) {
	args := Args{History: []string{"C1", "C2"}}

	assert.Equal(t, []broker.Request{
		broker.ListChannels{},
		broker.ListUsers{},
		broker.ListDirectMessages{},
		broker.FetchHistory{ChannelID: "C1"},
		broker.FetchHistory{ChannelID: "C2"},
	}, args.InitialRequests())
}

func TestArgs_BrokerOptions(t *testing.T) {
	base := Args{Token: "xoxb-1", APIURL: "http://localhost", HTTPTimeout: time.Second}

	withoutReconnect := base.BrokerOptions(slog.Default())
	base.Reconnect = true
	base.ReconnectMaxInterval = time.Second
	withReconnect := base.BrokerOptions(slog.Default())

	assert.Len(t, withReconnect, len(withoutReconnect)+1)
}
