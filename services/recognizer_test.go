package services

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPlate(t *testing.T) {
	assert.Equal(t, "ABC123", CleanPlate("abc 123"))
	assert.Equal(t, "ABC123", CleanPlate("a-b-c-1-2-3"))
	assert.Equal(t, "XYZ999", CleanPlate("XYZ999"))
	assert.Equal(t, "", CleanPlate("---"))
}

func TestRecognizeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Token test-token", r.Header.Get("Authorization"))

		assert.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("upload")
		assert.NoError(t, err)
		assert.Equal(t, "es", r.FormValue("regions"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"plate":"abc 123","score":0.91}]}`))
	}))
	defer server.Close()

	recognizer := NewPlateRecognizer(server.URL, "test-token", "es")
	plate, err := recognizer.Recognize([]byte("fake-jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "ABC123", plate)
}

func TestRecognizeNoPlateFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	recognizer := NewPlateRecognizer(server.URL, "test-token", "es")
	_, err := recognizer.Recognize([]byte("fake-jpeg-bytes"))
	assert.ErrorIs(t, err, ErrNoPlateFound)
}

func TestRecognizeUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusForbidden)
	}))
	defer server.Close()

	recognizer := NewPlateRecognizer(server.URL, "test-token", "es")
	_, err := recognizer.Recognize([]byte("fake-jpeg-bytes"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoPlateFound)
}

func TestRecognizeBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	recognizer := NewPlateRecognizer(server.URL, "test-token", "es")
	for i := 0; i < 5; i++ {
		_, err := recognizer.Recognize([]byte("fake"))
		require.Error(t, err)
	}

	// 第六次被斷路器擋下，不再打到上游
	_, err := recognizer.Recognize([]byte("fake"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temporarily unavailable")
	assert.Equal(t, 5, calls)
}
