package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"fitsymphony/internal/tools"

	"go.uber.org/zap"
)

var (
	ErrQueueFull      = errors.New("llm queue full")
	ErrManagerStopped = errors.New("llm manager stopped")
)

// Manager coordinates all completion requests: two priority queues feeding
// a bounded number of concurrent HTTP calls.
type Manager struct {
	criticalQueue   chan *Request
	backgroundQueue chan *Request

	semaphore chan struct{}

	circuitBreaker *tools.CircuitBreaker
	httpClient     *http.Client

	mu      sync.Mutex
	metrics Metrics

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup

	config *Config
	logger *zap.Logger
}

// NewManager creates a queue manager and starts its dispatcher.
func NewManager(config *Config, circuitBreaker *tools.CircuitBreaker, logger *zap.Logger) *Manager {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		criticalQueue:   make(chan *Request, config.CriticalQueueSize),
		backgroundQueue: make(chan *Request, config.BackgroundQueueSize),
		semaphore:       make(chan struct{}, config.MaxConcurrent),
		circuitBreaker:  circuitBreaker,
		httpClient:      &http.Client{},
		stopCh:          make(chan struct{}),
		config:          config,
		logger:          logger.Named("llm_queue"),
	}

	m.wg.Add(1)
	go m.dispatcher()

	m.logger.Info("started", zap.Int("concurrent_slots", config.MaxConcurrent))
	return m
}

// Submit adds a request to its queue, dropping it if the queue is full.
func (m *Manager) Submit(req *Request) error {
	select {
	case <-m.stopCh:
		return ErrManagerStopped
	default:
	}

	queue := m.backgroundQueue
	if req.Priority == PriorityCritical {
		queue = m.criticalQueue
	}

	m.mu.Lock()
	if req.Priority == PriorityCritical {
		m.metrics.CriticalEnqueued++
	} else {
		m.metrics.BackgroundEnqueued++
	}
	m.mu.Unlock()

	select {
	case queue <- req:
		return nil
	default:
		m.mu.Lock()
		if req.Priority == PriorityCritical {
			m.metrics.CriticalDropped++
		} else {
			m.metrics.BackgroundDropped++
		}
		m.mu.Unlock()
		m.logger.Warn("queue full, dropping request",
			zap.String("priority", req.Priority.String()),
			zap.String("request_id", req.ID))
		return ErrQueueFull
	}
}

// dispatcher always drains the critical queue before background work.
func (m *Manager) dispatcher() {
	defer m.wg.Done()

	for {
		var req *Request
		select {
		case <-m.stopCh:
			return
		case req = <-m.criticalQueue:
		case req = <-m.backgroundQueue:
			select {
			case crit := <-m.criticalQueue:
				m.requeue(req)
				req = crit
			default:
			}
		}

		select {
		case <-m.stopCh:
			req.ErrorCh <- ErrManagerStopped
			return
		case m.semaphore <- struct{}{}:
		}

		m.wg.Add(1)
		go m.processRequest(req)
	}
}

func (m *Manager) requeue(req *Request) {
	select {
	case m.backgroundQueue <- req:
	default:
		req.ErrorCh <- ErrQueueFull
	}
}

func (m *Manager) processRequest(req *Request) {
	defer func() {
		<-m.semaphore
		m.wg.Done()

		m.mu.Lock()
		if req.Priority == PriorityCritical {
			m.metrics.CriticalProcessed++
		} else {
			m.metrics.BackgroundProcessed++
		}
		m.mu.Unlock()
	}()

	if err := req.Context.Err(); err != nil {
		req.ErrorCh <- err
		return
	}

	startTime := time.Now()
	ctx, cancel := context.WithTimeout(req.Context, req.Timeout)
	defer cancel()

	resp, err := m.execute(ctx, req)
	if err != nil {
		m.logger.Warn("request failed",
			zap.String("request_id", req.ID),
			zap.Duration("elapsed", time.Since(startTime)),
			zap.Error(err))
		req.ErrorCh <- err
		return
	}
	m.logger.Debug("request completed",
		zap.String("request_id", req.ID),
		zap.Duration("elapsed", time.Since(startTime)))
	req.ResponseCh <- resp
}

func (m *Manager) execute(ctx context.Context, req *Request) (*Response, error) {
	if m.circuitBreaker == nil {
		return m.executeHTTPRequest(ctx, req)
	}
	var resp *Response
	err := m.circuitBreaker.Call(func() error {
		var err error
		resp, err = m.executeHTTPRequest(ctx, req)
		if err == nil && resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("LLM returned status %d", resp.StatusCode)
		}
		return err
	})
	return resp, err
}

func (m *Manager) executeHTTPRequest(ctx context.Context, req *Request) (*Response, error) {
	jsonData, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &Response{StatusCode: httpResp.StatusCode, Body: body}, nil
}

// ClientFor returns a client for priority using the queue's timeout for
// that priority.
func (m *Manager) ClientFor(priority Priority) *Client {
	timeout := m.config.BackgroundTimeout
	if priority == PriorityCritical {
		timeout = m.config.CriticalTimeout
	}
	return NewClient(m, priority, timeout)
}

// GetMetrics returns current queue statistics
func (m *Manager) GetMetrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.metrics
	metrics.CurrentQueueDepth = map[string]int{
		PriorityCritical.String():   len(m.criticalQueue),
		PriorityBackground.String(): len(m.backgroundQueue),
	}
	return metrics
}

// Done is closed once Stop has been called.
func (m *Manager) Done() <-chan struct{} {
	return m.stopCh
}

// Stop shuts the dispatcher down and waits for in-flight requests.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
		m.logger.Info("stopped")
	})
}
