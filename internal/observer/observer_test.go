package observer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/trackscope/internal/repository"
)

func TestUnsubscribeAllReleasesOnceInReverse(t *testing.T) {
	var order []string
	release := unsubscribeAll([]repository.Unsubscribe{
		func() { order = append(order, "route") },
		func() { order = append(order, "subscribe") },
	})

	release()
	release()

	assert.Equal(t, []string{"subscribe", "route"}, order)
}
