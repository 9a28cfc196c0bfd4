package push

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/buttoners/staffroom/internal/model"
)

func testService(t *testing.T) *Service {
	t.Helper()
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate vapid keys: %v", err)
	}
	return NewService(pub, priv, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// testSubscription builds a subscription with a valid P-256 key pair so
// payload encryption succeeds, pointed at the given endpoint.
func testSubscription(t *testing.T, endpoint string) *model.PushSubscription {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate subscription key: %v", err)
	}
	auth := make([]byte, 16)
	rand.Read(auth)
	return &model.PushSubscription{
		Endpoint:  endpoint,
		P256dhKey: base64.RawURLEncoding.EncodeToString(elliptic.Marshal(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)),
		AuthKey:   base64.RawURLEncoding.EncodeToString(auth),
	}
}

func pushEndpoint(t *testing.T, status int) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestSendExpired(t *testing.T) {
	svc := testService(t)

	for _, status := range []int{http.StatusNotFound, http.StatusGone} {
		sub := testSubscription(t, pushEndpoint(t, status))
		if err := svc.Send(sub, Payload{Title: "x"}); !errors.Is(err, ErrExpired) {
			t.Errorf("status %d: err = %v, want ErrExpired", status, err)
		}
	}

	sub := testSubscription(t, pushEndpoint(t, http.StatusCreated))
	if err := svc.Send(sub, Payload{Title: "x"}); err != nil {
		t.Errorf("delivered: err = %v, want nil", err)
	}
}

func TestFanoutReportsExpired(t *testing.T) {
	svc := testService(t)

	alive := testSubscription(t, pushEndpoint(t, http.StatusCreated))
	alive.ID = 1
	gone := testSubscription(t, pushEndpoint(t, http.StatusGone))
	gone.ID = 2

	expired := svc.Fanout([]model.PushSubscription{*alive, *gone}, Payload{Title: "x"})
	if len(expired) != 1 || expired[0] != 2 {
		t.Errorf("expired = %v, want [2]", expired)
	}
}

func TestNoticePayload(t *testing.T) {
	p := NoticePayload(&model.Notice{ID: 7, Title: "Fire drill Friday"})
	if p.Body != "Fire drill Friday" {
		t.Errorf("body = %q", p.Body)
	}
	if p.URL != "/notices/7" {
		t.Errorf("url = %q", p.URL)
	}
	if p.Tag != "notice-7" {
		t.Errorf("tag = %q", p.Tag)
	}
}
