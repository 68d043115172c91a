package uploader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"example.com/bakehouse/services/orders/config"

	"github.com/stretchr/testify/require"
)

func client(t *testing.T, handler http.HandlerFunc) (Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewImgBBClient(config.UploadConfig{
		Enabled:  true,
		Endpoint: srv.URL,
		APIKey:   "test-key",
	}), srv
}

func TestUploadReturnsHostedURL(t *testing.T) {
	c, _ := client(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "test-key", r.URL.Query().Get("key"))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "cake.jpg", header.Filename)

		w.Write([]byte(`{"success":true,"data":{"url":"https://img.example/cake.jpg"}}`))
	})

	url, err := c.Upload(context.Background(), "cake.jpg", []byte("jpeg-bytes"))
	require.NoError(t, err)
	require.Equal(t, "https://img.example/cake.jpg", url)
}

func TestUploadReportedFailure(t *testing.T) {
	c, _ := client(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	})

	_, err := c.Upload(context.Background(), "cake.jpg", []byte("jpeg-bytes"))
	require.Error(t, err)
}

func TestUploadNon200Status(t *testing.T) {
	c, _ := client(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Upload(context.Background(), "cake.jpg", []byte("jpeg-bytes"))
	require.Error(t, err)
}

func TestDisabledClient(t *testing.T) {
	c := NewImgBBClient(config.UploadConfig{Enabled: false})

	_, err := c.Upload(context.Background(), "cake.jpg", []byte("jpeg-bytes"))
	require.ErrorIs(t, err, ErrDisabled)
}
