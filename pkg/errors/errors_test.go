package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errGone = WithCode(http.StatusNotFound, "gone")

func TestGetCodeFollowsChain(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", errGone)
	assert.Equal(t, http.StatusNotFound, GetCode(wrapped))
	assert.Equal(t, "gone", GetMessage(wrapped))
	assert.True(t, Is(wrapped, errGone))

	assert.Equal(t, http.StatusInternalServerError, GetCode(fmt.Errorf("plain")))
}

func TestWrapKeepsCause(t *testing.T) {
	root := fmt.Errorf("disk full")
	err := Wrap(root, "save failed")
	assert.Equal(t, "save failed", err.Error())
	assert.Equal(t, root, Cause(err))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestDetailKeepsCauseChain(t *testing.T) {
	root := fmt.Errorf("context canceled")
	err := Wrap(root, "create alert")
	assert.Equal(t, "create alert", err.Error())
	assert.Equal(t, "create alert: context canceled", err.Detail())
	assert.Equal(t, "create alert: context canceled", Detail(err))

	nested := Wrap(Wrap(root, "insert"), "create alert")
	assert.Equal(t, "create alert: insert: context canceled", Detail(nested))

	outer := fmt.Errorf("trigger: %w", err)
	assert.Equal(t, "trigger: create alert (create alert: context canceled)", Detail(outer))

	assert.Equal(t, "gone", Detail(errGone))
	assert.Equal(t, "plain", Detail(fmt.Errorf("plain")))
	assert.Empty(t, Detail(nil))
}
