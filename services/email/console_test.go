package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/carline/core"
)

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	require.NoError(t, core.RegisterEmailTemplate("test_greeting", "Hello {{.Name}}!"))
	svc := NewConsoleServiceMock(core.Conf)
	to := []mail.Address{{Name: "Ops", Address: "ops@carline.test"}}

	tests := []struct {
		name     string
		msg      core.EmailMessage
		wantSent bool
		wantText string
	}{
		{name: "plain body", msg: core.EmailMessage{To: to, Subject: "hi", BodyStr: "plain"}, wantSent: true, wantText: "plain"},
		{name: "template", msg: core.EmailMessage{To: to, Subject: "hi", TemplateName: "test_greeting", TemplateData: map[string]string{"Name": "Ops"}}, wantSent: true, wantText: "Hello Ops!"},
		{name: "missing template key", msg: core.EmailMessage{To: to, TemplateName: "test_greeting", TemplateData: map[string]string{}}},
		{name: "unknown template", msg: core.EmailMessage{To: to, TemplateName: "nope"}},
		{name: "no recipients", msg: core.EmailMessage{BodyStr: "plain"}},
		{name: "no content", msg: core.EmailMessage{To: to}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetSentMessages()
			msg := tt.msg
			svc.SendMessages(&msg)
			if !tt.wantSent {
				assert.Empty(t, SentMessages)
				return
			}
			require.Len(t, SentMessages, 1)
			assert.Equal(t, tt.wantText, SentMessages[0].TextContent)
		})
	}
}
