package config

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := New()

	assert.NotEmpty(t, conf)
	assert.Equal(t, "mongodb://127.0.0.1:27017", conf.URL)
	assert.Equal(t, "test", conf.DatabaseName)
}

func TestNewReadsStrategyToggles(t *testing.T) {
	os.Setenv("CHAT_ORDERED_QUERIES", "true")
	os.Setenv("ADVISOR_STRICT_AVAILABILITY", "true")
	defer os.Unsetenv("CHAT_ORDERED_QUERIES")
	defer os.Unsetenv("ADVISOR_STRICT_AVAILABILITY")

	conf := New()
	assert.True(t, conf.OrderedQueries)
	assert.True(t, conf.StrictAvailability)

	os.Setenv("CHAT_ORDERED_QUERIES", "nope")
	os.Unsetenv("ADVISOR_STRICT_AVAILABILITY")

	conf = New()
	assert.False(t, conf.OrderedQueries)
	assert.False(t, conf.StrictAvailability)
}

func TestErrorStatus(t *testing.T) {

	ErrorStatus("error it borked", http.StatusBadRequest, httptest.NewRecorder(), errors.New("bad request"))
	assert.True(t, true)
}
