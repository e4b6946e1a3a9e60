package ids

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstruct(t *testing.T) {
	t.Run("empty is rejected", func(t *testing.T) {
		_, ok := NewThreadID("")
		assert.False(t, ok)
		_, ok = NewUserID("")
		assert.False(t, ok)
		_, ok = NewPrivateMessageFolderID("")
		assert.False(t, ok)
	})
	t.Run("raw value round trips", func(t *testing.T) {
		id, ok := NewThreadID("123")
		assert.True(t, ok)
		assert.Equal(t, "123", id.Raw())
		assert.Equal(t, "123", id.String())
		assert.False(t, id.IsZero())
	})
	t.Run("no numeric coercion", func(t *testing.T) {
		a, _ := NewPostID("0123")
		b, _ := NewPostID("123")
		assert.NotEqual(t, a, b)
	})
	t.Run("zero value", func(t *testing.T) {
		var id ForumID
		assert.True(t, id.IsZero())
	})
}

func TestEquality(t *testing.T) {
	a, _ := NewForumID("26")
	b, _ := NewForumID("26")
	c, _ := NewForumID("27")
	assert.Equal(t, a, b)
	assert.True(t, a == b)
	assert.False(t, a == c)

	seen := map[ForumID]int{a: 1}
	assert.Equal(t, 1, seen[b])
}

func TestText(t *testing.T) {
	type payload struct {
		Thread ThreadID `json:"thread"`
	}
	id, _ := NewThreadID("3456")

	out, err := json.Marshal(payload{Thread: id})
	assert.Nil(t, err)
	assert.JSONEq(t, `{"thread":"3456"}`, string(out))

	var in payload
	assert.Nil(t, json.Unmarshal(out, &in))
	assert.Equal(t, id, in.Thread)

	assert.NotNil(t, json.Unmarshal([]byte(`{"thread":""}`), &in))
}
