package intent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortlabs/oracle/internal/intent"
	"github.com/cohortlabs/oracle/internal/llm"
)

// --- Mock Completer ---

type mockCompleter struct {
	completeFn func(ctx context.Context, req llm.Request) (string, error)
	lastReq    llm.Request
}

func (m *mockCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	m.lastReq = req
	if m.completeFn != nil {
		return m.completeFn(ctx, req)
	}
	return `{"action":"none"}`, nil
}

func replying(out string) *mockCompleter {
	return &mockCompleter{completeFn: func(context.Context, llm.Request) (string, error) {
		return out, nil
	}}
}

// ===== Parse =====

func TestParse_NotJSONYieldsNil(t *testing.T) {
	t.Parallel()

	p := intent.NewParser(replying("not json at all"), "model")

	assert.Nil(t, p.Parse(context.Background(), "please broadcast hello"))
}

func TestParse_FencedJSON(t *testing.T) {
	t.Parallel()

	p := intent.NewParser(replying("```json\n{\"action\":\"broadcast\",\"content\":\"50% done\"}\n```"), "model")

	d := p.Parse(context.Background(), "/broadcast 50% done")

	require.NotNil(t, d)
	assert.Equal(t, intent.ActionBroadcast, d.Action)
	assert.Equal(t, "50% done", d.Content)
	assert.Empty(t, d.BroadcastType)
}

func TestParse_NoneYieldsNil(t *testing.T) {
	t.Parallel()

	p := intent.NewParser(replying(`{"action":"none"}`), "model")

	assert.Nil(t, p.Parse(context.Background(), "what stage are we in?"))
}

func TestParse_LLMErrorYieldsNil(t *testing.T) {
	t.Parallel()

	m := &mockCompleter{completeFn: func(context.Context, llm.Request) (string, error) {
		return "", &llm.Error{Kind: llm.KindOverloaded, StatusCode: 529}
	}}
	p := intent.NewParser(m, "model")

	assert.Nil(t, p.Parse(context.Background(), "post an update: shipped login"))
}

func TestParse_BlankTextSkipsModel(t *testing.T) {
	t.Parallel()

	called := false
	m := &mockCompleter{completeFn: func(context.Context, llm.Request) (string, error) {
		called = true
		return "", nil
	}}
	p := intent.NewParser(m, "model")

	assert.Nil(t, p.Parse(context.Background(), "   "))
	assert.False(t, called)
}

func TestParse_DeterministicRequest(t *testing.T) {
	t.Parallel()

	m := &mockCompleter{}
	p := intent.NewParser(m, "intent-model")

	p.Parse(context.Background(), "hello")

	assert.Equal(t, "intent-model", m.lastReq.Model)
	assert.Equal(t, 0.0, m.lastReq.Temperature)
	assert.Equal(t, "hello", m.lastReq.User)
	assert.Contains(t, m.lastReq.System, "send_message")
}

// ===== Decode =====

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    *intent.Descriptor
		wantErr bool
	}{
		{
			name: "create update",
			raw:  `{"action":"create_update","content":"  shipped login  "}`,
			want: &intent.Descriptor{Action: intent.ActionCreateUpdate, Content: "shipped login"},
		},
		{
			name: "broadcast to role normalizes case",
			raw:  `{"action":"broadcast","content":"demo day","broadcast_type":"ROLE","target_value":"mentor"}`,
			want: &intent.Descriptor{Action: intent.ActionBroadcast, Content: "demo day", BroadcastType: "role", TargetValue: "mentor"},
		},
		{
			name: "assign with empty team",
			raw:  `{"action":"assign_user","user_name":"Ada","team_name":""}`,
			want: &intent.Descriptor{Action: intent.ActionAssignUser, UserName: "Ada"},
		},
		{
			name: "plain fence",
			raw:  "```\n{\"action\":\"update_status\",\"status\":\"demo ready\"}\n```",
			want: &intent.Descriptor{Action: intent.ActionUpdateStatus, Status: "demo ready"},
		},
		{name: "unknown field", raw: `{"action":"broadcast","content":"hi","priority":"high"}`, wantErr: true},
		{name: "unknown action", raw: `{"action":"delete_team"}`, wantErr: true},
		{name: "field of another action", raw: `{"action":"create_update","content":"x","user_name":"Ada"}`, wantErr: true},
		{name: "unknown broadcast type", raw: `{"action":"broadcast","content":"x","broadcast_type":"everyone"}`, wantErr: true},
		{name: "unknown role target", raw: `{"action":"broadcast","content":"x","broadcast_type":"role","target_value":"admin"}`, wantErr: true},
		{name: "trailing object", raw: `{"action":"none"}{"action":"broadcast"}`, wantErr: true},
		{name: "prose around json", raw: `Sure! {"action":"none"}`, wantErr: true},
		{name: "double fence", raw: "```\n```\n{\"action\":\"none\"}\n```\n```", wantErr: true},
		{name: "array", raw: `[{"action":"none"}]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := intent.Decode(tt.raw)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescriptor_Actionable(t *testing.T) {
	t.Parallel()

	var nilDesc *intent.Descriptor
	assert.False(t, nilDesc.Actionable())
	assert.False(t, (&intent.Descriptor{Action: intent.ActionNone}).Actionable())
	assert.True(t, (&intent.Descriptor{Action: intent.ActionBroadcast}).Actionable())
}
