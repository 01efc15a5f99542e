package client

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"roof-watch-go/internal/danger"
	"roof-watch-go/internal/frame"
	"roof-watch-go/internal/mask"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// SegmenterService полное имя gRPC-сервиса сегментации
const SegmenterService = "roofwatch.v1.Segmenter"

// Методы сегментатора. Запрос и ответ - google.protobuf.BytesValue:
// JPEG кадра на входе, одноканальный PNG маски на выходе.
const (
	MethodSegmentWater      = "/" + SegmenterService + "/SegmentWater"
	MethodSegmentRoof       = "/" + SegmenterService + "/SegmentRoof"
	MethodExtractPersonMask = "/" + SegmenterService + "/ExtractPersonMask"

	// BBoxMetadataKey ключ метаданных с рамкой человека "x1,y1,x2,y2"
	BBoxMetadataKey = "x-person-bbox"
)

const maxMessageSize = 50 * 1024 * 1024

// SegmenterClient клиент gRPC-сервиса сегментации воды, крыши и людей
type SegmenterClient struct {
	conn    *grpc.ClientConn
	timeout time.Duration
	logger  *logrus.Logger
}

// NewSegmenterClient подключается к сегментатору. Дополнительные опции
// добавляются к стандартным (используется в тестах для bufconn).
func NewSegmenterClient(addr string, timeout time.Duration, logger *logrus.Logger, extra ...grpc.DialOption) (*SegmenterClient, error) {
	logger.Infof("Подключение к сегментатору %s", addr)

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(maxMessageSize),
			grpc.MaxCallSendMsgSize(maxMessageSize),
		),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             3 * time.Second,
			PermitWithoutStream: true,
		}),
	}
	opts = append(opts, extra...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not create segmenter client for %s: %w", addr, err)
	}

	return &SegmenterClient{
		conn:    conn,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// SegmentWater возвращает маску воды на кадре
func (c *SegmenterClient) SegmentWater(ctx context.Context, f *frame.Frame) (*mask.Mask, error) {
	return c.segment(ctx, MethodSegmentWater, f)
}

// SegmentRoof возвращает маску крыш на кадре
func (c *SegmenterClient) SegmentRoof(ctx context.Context, f *frame.Frame) (*mask.Mask, error) {
	return c.segment(ctx, MethodSegmentRoof, f)
}

// ExtractPersonMask возвращает маску человека внутри рамки box
func (c *SegmenterClient) ExtractPersonMask(ctx context.Context, f *frame.Frame, box danger.BBox) (*mask.Mask, error) {
	ctx = metadata.AppendToOutgoingContext(ctx, BBoxMetadataKey,
		fmt.Sprintf("%d,%d,%d,%d", box.X1, box.Y1, box.X2, box.Y2))
	return c.segment(ctx, MethodExtractPersonMask, f)
}

func (c *SegmenterClient) segment(ctx context.Context, method string, f *frame.Frame) (*mask.Mask, error) {
	payload, err := f.EncodeJPEG()
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp := &wrapperspb.BytesValue{}
	if err := c.conn.Invoke(ctx, method, wrapperspb.Bytes(payload), resp); err != nil {
		return nil, fmt.Errorf("segmenter call %s failed: %w", method, err)
	}

	// Пустой ответ - объект не найден
	if len(resp.GetValue()) == 0 {
		return mask.New(f.Width(), f.Height()), nil
	}

	m, err := mask.DecodePNG(bytes.NewReader(resp.GetValue()))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, method, err)
	}
	if m.Width != f.Width() || m.Height != f.Height() {
		return nil, fmt.Errorf("%w: %s returned %dx%d mask for %dx%d frame",
			ErrMalformedResponse, method, m.Width, m.Height, f.Width(), f.Height())
	}

	c.logger.Debugf("%s: кадр %d, маска получена", method, f.Seq)
	return m, nil
}

// CheckHealth проверяет сегментатор через стандартный grpc.health.v1
func (c *SegmenterClient) CheckHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: SegmenterService})
	if err != nil {
		if status.Code(err) == codes.Unimplemented {
			return fmt.Errorf("segmenter does not expose health service: %w", err)
		}
		return fmt.Errorf("segmenter health check failed: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("segmenter is %s", resp.GetStatus())
	}
	return nil
}

// Close закрывает соединение
func (c *SegmenterClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
