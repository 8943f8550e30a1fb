// Package scanner 封装 clamd 病毒扫描客户端，摄取与同步路径共用.
// 扫描不可用时调用方必须拒绝写入（fail-closed），绝不放行未扫描的内容.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/sony/gobreaker"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/log"
)

// ErrUnavailable 扫描服务不可达或超时，调用方应返回 503 并拒绝写入.
var ErrUnavailable = errors.New("scanner unavailable")

// Result 单次扫描结论.
type Result struct {
	Infected  bool
	VirusName string
}

// Service clamd 扫描服务客户端.
type Service struct {
	client  *clamd.Clamd
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
}

// New 根据配置创建扫描客户端.
func New(cfg *configs.ScannerConfig) *Service {
	settings := gobreaker.Settings{
		Name:    "clamd",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			const minRequests = 5

			return counts.Requests >= minRequests && counts.ConsecutiveFailures >= minRequests
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.With("scanner").Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("clamd circuit breaker state changed")
		},
	}

	return &Service{
		client:  clamd.NewClamd(cfg.GetAddress()),
		timeout: cfg.GetTimeoutDuration(),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// ScanStream 以 INSTREAM 方式扫描内容流.
// 返回 ErrUnavailable 表示扫描服务故障，感染本身不是错误而是 Result.Infected.
func (s *Service) ScanStream(ctx context.Context, r io.Reader) (*Result, error) {
	res, err := s.breaker.Execute(func() (any, error) {
		return s.scan(ctx, r)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrUnavailable)
		}

		return nil, err
	}

	result, ok := res.(*Result)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected scan result type", ErrUnavailable)
	}

	return result, nil
}

func (s *Service) scan(ctx context.Context, r io.Reader) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	abort := make(chan bool)
	defer close(abort)

	ch, err := s.client.ScanStream(r, abort)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err.Error())
	}

	select {
	case sr, ok := <-ch:
		if !ok || sr == nil {
			return nil, fmt.Errorf("%w: empty scan response", ErrUnavailable)
		}

		switch sr.Status {
		case clamd.RES_OK:
			return &Result{Infected: false}, nil
		case clamd.RES_FOUND:
			return &Result{Infected: true, VirusName: sr.Description}, nil
		default:
			return nil, fmt.Errorf("%w: clamd returned %s (%s)", ErrUnavailable, sr.Status, sr.Description)
		}
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, ctx.Err().Error())
	}
}

// Ping 探测 clamd 是否可达，供健康检查使用.
func (s *Service) Ping(ctx context.Context) error {
	done := make(chan error, 1)

	go func() { done <- s.client.Ping() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %s", ErrUnavailable, err.Error())
		}

		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %s", ErrUnavailable, ctx.Err().Error())
	}
}
