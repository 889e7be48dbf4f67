package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"slackbroker/models"
)

const DefaultBaseURL = "https://slack.com/api"

type clientOptions struct {
	baseURL    string
	timeout    time.Duration
	logger     *slog.Logger
	httpClient *http.Client
	limiter    *rate.Limiter
}

type ClientOption func(*clientOptions)

// WithBaseURL 設置 API 的根路徑
func WithBaseURL(baseURL string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = baseURL
	}
}

// WithHTTPTimeout 設置單次請求的逾時時間
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// WithLogger 設置日誌記錄器
func WithLogger(logger *slog.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithHTTPClient 設置底層的 http.Client，其 Transport 會被包進 oauth2
func WithHTTPClient(client *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithRateLimiter 設置共用的限流器，每次呼叫前等待配額
func WithRateLimiter(limiter *rate.Limiter) ClientOption {
	return func(o *clientOptions) {
		o.limiter = limiter
	}
}

// Client 透過 HTTP 呼叫後端 Web API，實作 IClient
type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ IClient = (*Client)(nil)

// NewClient 建立一個以 bearer token 認證的客戶端
func NewClient(token string, opts ...ClientOption) *Client {
	// 默認選項
	options := clientOptions{
		baseURL:    DefaultBaseURL,
		timeout:    30 * time.Second,
		logger:     slog.Default(),
		httpClient: http.DefaultClient,
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, options.httpClient)
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = options.timeout

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(options.baseURL, "/"),
		limiter: options.limiter,
		logger:  options.logger.With(slog.String("caller", "SlackClient")),
	}
}

// envelope 是每個 API 回應都有的共同欄位
type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (e envelope) status() envelope { return e }

type result interface {
	status() envelope
}

type channelDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsMember   bool   `json:"is_member"`
	IsArchived bool   `json:"is_archived"`
	Topic      struct {
		Value string `json:"value"`
	} `json:"topic"`
	Purpose struct {
		Value string `json:"value"`
	} `json:"purpose"`
}

type imDTO struct {
	ID            string `json:"id"`
	User          string `json:"user"`
	Created       int64  `json:"created"`
	IsUserDeleted bool   `json:"is_user_deleted"`
}

type userDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RealName string `json:"real_name"`
	Deleted  bool   `json:"deleted"`
	IsBot    bool   `json:"is_bot"`
	TZ       string `json:"tz"`
}

type messageDTO struct {
	Type     string `json:"type"`
	Subtype  string `json:"subtype"`
	User     string `json:"user"`
	Text     string `json:"text"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts"`
}

// ListChannels 呼叫 conversations.list 取得公開頻道
func (c *Client) ListChannels(ctx context.Context) ([]models.Channel, error) {
	var resp struct {
		envelope
		Channels []channelDTO `json:"channels"`
	}
	params := url.Values{"types": {"public_channel"}}
	if err := c.call(ctx, "conversations.list", params, &resp); err != nil {
		return nil, err
	}
	return lo.Map(resp.Channels, func(item channelDTO, _ int) models.Channel {
		return models.Channel{
			ID:         item.ID,
			Name:       item.Name,
			IsMember:   item.IsMember,
			IsArchived: item.IsArchived,
			Topic:      item.Topic.Value,
			Purpose:    item.Purpose.Value,
		}
	}), nil
}

// ListUsers 呼叫 users.list 取得成員
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var resp struct {
		envelope
		Members []userDTO `json:"members"`
	}
	if err := c.call(ctx, "users.list", nil, &resp); err != nil {
		return nil, err
	}
	return lo.Map(resp.Members, func(item userDTO, _ int) models.User {
		return models.User(item)
	}), nil
}

// ListDirectMessages 呼叫 conversations.list 取得私訊對話
func (c *Client) ListDirectMessages(ctx context.Context, limit int) ([]models.Conversation, error) {
	var resp struct {
		envelope
		Channels []imDTO `json:"channels"`
	}
	params := url.Values{"types": {"im"}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if err := c.call(ctx, "conversations.list", params, &resp); err != nil {
		return nil, err
	}
	return lo.Map(resp.Channels, func(item imDTO, _ int) models.Conversation {
		return models.Conversation{
			ID:            item.ID,
			User:          item.User,
			Created:       time.Unix(item.Created, 0).UTC(),
			IsUserDeleted: item.IsUserDeleted,
		}
	}), nil
}

// FetchHistory 呼叫 conversations.history 取得最新的訊息，不指定 oldest/latest
func (c *Client) FetchHistory(ctx context.Context, channelID string, limit int) ([]models.Message, error) {
	var resp struct {
		envelope
		Messages []messageDTO `json:"messages"`
	}
	params := url.Values{"channel": {channelID}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if err := c.call(ctx, "conversations.history", params, &resp); err != nil {
		return nil, err
	}
	return lo.Map(resp.Messages, func(item messageDTO, _ int) models.Message {
		return models.Message(item)
	}), nil
}

// ConnectStream 呼叫 rtm.connect 取得即時串流的位址
func (c *Client) ConnectStream(ctx context.Context) (string, error) {
	const op = "ConnectStream"
	var resp struct {
		envelope
		URL string `json:"url"`
	}
	if err := c.call(ctx, "rtm.connect", nil, &resp); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", fmt.Errorf("[%s] No url field in rtm.connect response", op)
	}
	return resp.URL, nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values, out result) error {
	const op = "call"
	endpoint := c.baseURL + "/" + method
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("[%s] Fail to wait for rate limiter, method=%s, err=%w", op, method, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("[%s] Fail to build request, method=%s, err=%w", op, method, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("[%s] Fail to send request, method=%s, err=%w", op, method, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("api call finished",
		slog.String("method", method),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Method: method, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("[%s] Fail to decode response body, method=%s, err=%w", op, method, err)
	}
	if status := out.status(); !status.OK {
		return &APIError{Method: method, Code: status.Error}
	}
	return nil
}
