package client

import (
	"bytes"
	"context"
	"image"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"roof-watch-go/internal/danger"
	"roof-watch-go/internal/mask"
)

// fakeSegmenter отвечает заранее заданными PNG и запоминает метаданные рамки
type fakeSegmenter struct {
	responses map[string][]byte

	mu       sync.Mutex
	lastBBox string
}

func (f *fakeSegmenter) bbox() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBBox
}

func (f *fakeSegmenter) handler(name string) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(wrapperspb.BytesValue)
			if err := dec(in); err != nil {
				return nil, err
			}
			if md, ok := metadata.FromIncomingContext(ctx); ok {
				if v := md.Get(BBoxMetadataKey); len(v) > 0 {
					f.mu.Lock()
					f.lastBBox = v[0]
					f.mu.Unlock()
				}
			}
			return wrapperspb.Bytes(f.responses[name]), nil
		},
	}
}

func startSegmenter(t *testing.T, fake *fakeSegmenter, serving bool) *SegmenterClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	srv.RegisterService(&grpc.ServiceDesc{
		ServiceName: SegmenterService,
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			fake.handler("SegmentWater"),
			fake.handler("SegmentRoof"),
			fake.handler("ExtractPersonMask"),
		},
	}, fake)

	hs := health.NewServer()
	st := healthpb.HealthCheckResponse_SERVING
	if !serving {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus(SegmenterService, st)
	healthpb.RegisterHealthServer(srv, hs)

	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewSegmenterClient("passthrough:///bufnet", time.Second, testLogger(),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func encodeMask(t *testing.T, m *mask.Mask) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, mask.EncodePNG(&buf, m))
	return buf.Bytes()
}

func TestSegmenterClient_Masks(t *testing.T) {
	water := mask.New(16, 12)
	water.Fill(image.Rect(0, 6, 16, 12), 255)
	person := mask.New(16, 12)
	person.Fill(image.Rect(2, 2, 5, 9), 255)

	fake := &fakeSegmenter{responses: map[string][]byte{
		"SegmentWater":      encodeMask(t, water),
		"SegmentRoof":       nil,
		"ExtractPersonMask": encodeMask(t, person),
	}}
	c := startSegmenter(t, fake, true)
	f := testFrame(16, 12)
	ctx := context.Background()

	gotWater, err := c.SegmentWater(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, water.Pix, gotWater.Pix)

	gotRoof, err := c.SegmentRoof(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 16, gotRoof.Width)
	assert.Equal(t, 12, gotRoof.Height)
	assert.False(t, mask.Binarize(gotRoof, mask.DefaultThreshold).Any(), "empty payload is an all-zero mask")

	gotPerson, err := c.ExtractPersonMask(ctx, f, danger.BBox{X1: 2, Y1: 2, X2: 5, Y2: 9})
	require.NoError(t, err)
	assert.Equal(t, person.Pix, gotPerson.Pix)
	assert.Equal(t, "2,2,5,9", fake.bbox())
}

func TestSegmenterClient_RejectsWrongMaskSize(t *testing.T) {
	fake := &fakeSegmenter{responses: map[string][]byte{
		"SegmentWater": encodeMask(t, mask.New(8, 8)),
	}}
	c := startSegmenter(t, fake, true)

	_, err := c.SegmentWater(context.Background(), testFrame(16, 12))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestSegmenterClient_RejectsGarbage(t *testing.T) {
	fake := &fakeSegmenter{responses: map[string][]byte{
		"SegmentRoof": []byte("not a png"),
	}}
	c := startSegmenter(t, fake, true)

	_, err := c.SegmentRoof(context.Background(), testFrame(16, 12))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestSegmenterClient_CheckHealth(t *testing.T) {
	c := startSegmenter(t, &fakeSegmenter{}, true)
	assert.NoError(t, c.CheckHealth(context.Background()))

	down := startSegmenter(t, &fakeSegmenter{}, false)
	assert.Error(t, down.CheckHealth(context.Background()))
}
