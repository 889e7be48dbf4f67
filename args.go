package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"slackbroker/adapters/rtm"
	"slackbroker/adapters/slack"
	"slackbroker/broker"
)

func ParseArgs(arguments []string) (Args, error) {
	flags := pflag.NewFlagSet("slackbroker", pflag.ContinueOnError)

	// api config
	flags.String("token", "", "bearer token of the chat backend")
	flags.String("api-url", slack.DefaultBaseURL, "")
	flags.Duration("http-timeout", 30*time.Second, "")
	flags.Float64("rate-limit", 0, "max api calls per second, 0 disables limiting")
	flags.Int("rate-burst", 1, "")

	// broker config
	flags.Int("max-workers", 0, "max concurrent api calls, 0 means unbounded")
	flags.StringSlice("history", nil, "channel ids to fetch history for at start")

	// stream config
	flags.Bool("reconnect", false, "reconnect the stream after transport errors")
	flags.Duration("reconnect-max-interval", time.Minute, "")
	flags.Duration("ping-interval", 30*time.Second, "0 disables ping")

	// log config
	flags.String("log-level", "info", "debug, info, warn or error")

	if err := flags.Parse(arguments); err != nil {
		return Args{}, err
	}

	// bind pflag to viper
	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		return Args{}, err
	}
	v.AutomaticEnv()
	v.SetEnvPrefix("SLACKBROKER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log-level"))); err != nil {
		return Args{}, fmt.Errorf("invalid log level, err=%w", err)
	}

	// initial arguments
	return Args{
		Token:                v.GetString("token"),
		APIURL:               v.GetString("api-url"),
		HTTPTimeout:          v.GetDuration("http-timeout"),
		RateLimit:            v.GetFloat64("rate-limit"),
		RateBurst:            v.GetInt("rate-burst"),
		MaxWorkers:           v.GetInt("max-workers"),
		History:              v.GetStringSlice("history"),
		Reconnect:            v.GetBool("reconnect"),
		ReconnectMaxInterval: v.GetDuration("reconnect-max-interval"),
		PingInterval:         v.GetDuration("ping-interval"),
		LogLevel:             level,
	}, nil
}

type Args struct {
	Token                string
	APIURL               string
	HTTPTimeout          time.Duration
	RateLimit            float64
	RateBurst            int
	MaxWorkers           int
	History              []string
	Reconnect            bool
	ReconnectMaxInterval time.Duration
	PingInterval         time.Duration
	LogLevel             slog.Level
}

func (args Args) Validate() bool {
	return args.Token != "" && args.APIURL != "" && args.HTTPTimeout > 0 && args.RateLimit >= 0 && args.MaxWorkers >= 0 && args.PingInterval >= 0
}

// BrokerOptions 將設定轉成 broker 的選項
func (args Args) BrokerOptions(logger *slog.Logger) []broker.Option {
	clientOpts := []slack.ClientOption{
		slack.WithBaseURL(args.APIURL),
		slack.WithHTTPTimeout(args.HTTPTimeout),
		slack.WithLogger(logger),
	}
	// 所有 worker 共用同一個限流器
	if args.RateLimit > 0 {
		clientOpts = append(clientOpts, slack.WithRateLimiter(rate.NewLimiter(rate.Limit(args.RateLimit), max(args.RateBurst, 1))))
	}

	opts := []broker.Option{
		broker.WithLogger(logger),
		broker.WithMaxWorkers(args.MaxWorkers),
		broker.WithClientFactory(func(token string) slack.IClient {
			return slack.NewClient(token, clientOpts...)
		}),
		broker.WithSessionOptions(rtm.WithPingInterval(args.PingInterval)),
	}
	if args.Reconnect {
		opts = append(opts, broker.WithReconnect(backoff.NewExponentialBackOff(
			backoff.WithMaxInterval(args.ReconnectMaxInterval),
			backoff.WithMaxElapsedTime(0),
		)))
	}
	return opts
}

// InitialRequests 是啟動後立即送出的請求
func (args Args) InitialRequests() []broker.Request {
	reqs := []broker.Request{
		broker.ListChannels{},
		broker.ListUsers{},
		broker.ListDirectMessages{},
	}
	for _, id := range args.History {
		reqs = append(reqs, broker.FetchHistory{ChannelID: id})
	}
	return reqs
}
