package libpam

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-pam"
	"github.com/stretchr/testify/assert"
)

func TestAnswerSingleMessage(t *testing.T) {
	conv := pam.ConversationFunc(func(msgs []pam.Message) ([]pam.Response, pam.Status) {
		out := make([]pam.Response, len(msgs))
		for i, m := range msgs {
			if m.Style == pam.PromptEchoOn {
				out[i] = pam.Response{Text: "alice", HasText: true}
			}
		}
		return out, pam.Success
	})

	reply, status := answer(conv, pam.PromptEchoOn, "login: ")
	assert.Equal(t, pam.Success, status)
	assert.Equal(t, "alice", reply)

	reply, status = answer(conv, pam.TextInfo, "hello")
	assert.Equal(t, pam.Success, status)
	assert.Empty(t, reply)
}

func TestAnswerPropagatesConversationFailure(t *testing.T) {
	failing := pam.ConversationFunc(func([]pam.Message) ([]pam.Response, pam.Status) {
		return nil, pam.ConvErr
	})
	_, status := answer(failing, pam.PromptEchoOff, "Password: ")
	assert.Equal(t, pam.ConvErr, status)

	short := pam.ConversationFunc(func([]pam.Message) ([]pam.Response, pam.Status) {
		return nil, pam.Success
	})
	_, status = answer(short, pam.PromptEchoOff, "Password: ")
	assert.Equal(t, pam.ConvErr, status)
}

func TestStartRequiresConversation(t *testing.T) {
	b := &Backend{}
	h, status := b.Start("login", nil)
	assert.Nil(t, h)
	assert.Equal(t, pam.SystemErr, status)
}

func TestNewMatchesBuild(t *testing.T) {
	b, err := New()
	if supported {
		assert.NoError(t, err)
		assert.NotNil(t, b)
		return
	}
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Nil(t, b)
}

func TestErrUnsupportedIsCategorized(t *testing.T) {
	assert.Equal(t, goerrors.CategoryOperation, ErrUnsupported.Category)
	assert.Equal(t, "PAM_UNSUPPORTED", ErrUnsupported.TextCode)
}
