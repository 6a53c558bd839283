package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/event"

	chain "github.com/fd1az/nexus-dashboard/business/blockchain/app"
	"github.com/fd1az/nexus-dashboard/business/blockchain/domain"
	rtapp "github.com/fd1az/nexus-dashboard/business/realtime/app"
	rtdomain "github.com/fd1az/nexus-dashboard/business/realtime/domain"
)

type fakeController struct {
	status      rtdomain.DetailedStatus
	reconnects  int
	disconnects int
	connects    int
}

func (f *fakeController) Connect() error                          { f.connects++; return nil }
func (f *fakeController) Disconnect()                             { f.disconnects++ }
func (f *fakeController) Reconnect()                              { f.reconnects++ }
func (f *fakeController) DetailedStatus() rtdomain.DetailedStatus { return f.status }

type fakeChain struct {
	state chain.State
	feed  event.FeedOf[chain.Change]
}

func (f *fakeChain) State() chain.State { return f.state }

func (f *fakeChain) SubscribeChanges(ch chan<- chain.Change) event.Subscription {
	return f.feed.Subscribe(ch)
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func dashboard(t *testing.T, ctrl Controller, c ChainReader) Model {
	t.Helper()
	m := New(ctrl, c, 5)
	m.phase = PhaseDashboard
	t.Cleanup(m.Close)
	return m
}

func TestModel_StatusPoll(t *testing.T) {
	ctrl := &fakeController{status: rtdomain.DetailedStatus{
		ConnectionStatus: rtdomain.ConnectionStatus{IsConnected: true},
		State:            rtdomain.StateOpen,
		URL:              "ws://localhost:8001/ws",
	}}
	cs := &fakeChain{state: chain.State{
		Snapshot: domain.ChainSnapshot{ChainLength: 3, Difficulty: 4},
		RecentBlocks: []domain.Block{
			{Index: 1, Hash: "aaaaaaaaaaaa"},
			{Index: 2, Hash: "bbbbbbbbbbbb"},
		},
		UpdatedAt: time.Now(),
	}}
	m := dashboard(t, ctrl, cs)

	updated, _ := m.Update(m.chainCmd()())
	m = updated.(Model)

	msg := m.pollCmd(0)()
	updated, cmd := m.Update(msg)
	if cmd == nil {
		t.Error("status update did not schedule the next poll")
	}
	m = updated.(Model)

	if !m.connected || !m.status.Status().Connected {
		t.Error("model not marked connected")
	}
	if m.startupSteps["node"].Status != "connected" {
		t.Errorf("node step = %q", m.startupSteps["node"].Status)
	}
	if m.blocks.Len() != 2 {
		t.Errorf("blocks = %d, want 2", m.blocks.Len())
	}
	if m.View() == "" {
		t.Error("empty view")
	}
}

func TestModel_Keys(t *testing.T) {
	ctrl := &fakeController{}
	m := dashboard(t, ctrl, &fakeChain{})

	_, cmd := m.Update(keyPress('r'))
	if cmd == nil {
		t.Fatal("r returned no command")
	}
	cmd()
	if ctrl.reconnects != 1 {
		t.Errorf("reconnects = %d, want 1", ctrl.reconnects)
	}

	// Not connected: d connects.
	_, cmd = m.Update(keyPress('d'))
	cmd()
	if ctrl.connects != 1 || ctrl.disconnects != 0 {
		t.Errorf("connects = %d disconnects = %d", ctrl.connects, ctrl.disconnects)
	}

	m.connected = true
	_, cmd = m.Update(keyPress('d'))
	cmd()
	if ctrl.disconnects != 1 {
		t.Errorf("disconnects = %d, want 1", ctrl.disconnects)
	}

	_, cmd = m.Update(keyPress('q'))
	if cmd == nil {
		t.Error("q returned no command")
	}
}

func TestModel_Notifications(t *testing.T) {
	m := dashboard(t, &fakeController{}, &fakeChain{})

	for _, id := range []string{"ws-connected", "block-abcdef01", "ws-connected"} {
		updated, _ := m.Update(NotificationMsg{Notification: rtapp.Notification{
			ID: id, Level: rtapp.LevelSuccess, Message: id,
		}})
		m = updated.(Model)
	}

	if got := len(m.toasts.Toasts()); got != 2 {
		t.Errorf("toasts = %d, want 2", got)
	}

	updated, _ := m.Update(keyPress('c'))
	m = updated.(Model)
	if got := len(m.toasts.Toasts()); got != 0 {
		t.Errorf("toasts after clear = %d", got)
	}
}

func TestModel_WelcomeSkip(t *testing.T) {
	started := make(chan struct{}, 1)
	OnStartModules = func() { started <- struct{}{} }
	defer func() { OnStartModules = nil }()

	m := New(&fakeController{}, &fakeChain{}, 5)
	defer m.Close()
	updated, _ := m.Update(keyPress('x'))
	m = updated.(Model)
	if m.phase != PhaseStartup {
		t.Fatalf("phase = %s, want startup", m.phase)
	}

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("OnStartModules not called")
	}

	updated, _ = m.Update(ModulesStartedMsg{})
	if updated.(Model).phase != PhaseDashboard {
		t.Error("ModulesStartedMsg did not open the dashboard")
	}
}

func TestModel_RedrawsOnStoreChange(t *testing.T) {
	cs := &fakeChain{}
	m := dashboard(t, &fakeController{}, cs)

	cs.state = chain.State{RecentBlocks: []domain.Block{{Index: 1, Hash: "aaaaaaaaaaaa"}}}
	cs.feed.Send(chain.Change{Kind: chain.ChangeBlocks})
	cs.state.RecentBlocks = append(cs.state.RecentBlocks, domain.Block{Index: 2, Hash: "bbbbbbbbbbbb"})
	cs.feed.Send(chain.Change{Kind: chain.ChangeBlocks})

	msg := m.waitChangeCmd()()
	cm, ok := msg.(ChainMsg)
	if !ok {
		t.Fatalf("msg = %T, want ChainMsg", msg)
	}
	if cm.Change != chain.ChangeBlocks {
		t.Errorf("change = %v, want blocks", cm.Change)
	}

	updated, cmd := m.Update(cm)
	if cmd == nil {
		t.Error("chain update did not wait for the next change")
	}
	m = updated.(Model)
	if m.blocks.Len() != 2 {
		t.Errorf("blocks = %d, want 2", m.blocks.Len())
	}

	m.Close()
	if msg := m.waitChangeCmd()(); msg != nil {
		t.Errorf("after Close msg = %T, want nil", msg)
	}
}

func TestModel_FallbackFlagFollowsConnection(t *testing.T) {
	ctrl := &fakeController{}
	cs := &fakeChain{state: chain.State{Snapshot: domain.ChainSnapshot{ChainLength: 7}}}
	m := dashboard(t, ctrl, cs)

	updated, _ := m.Update(m.chainCmd()())
	m = updated.(Model)
	if !m.stats.Stats().Fallback {
		t.Error("offline with data should show fallback")
	}

	ctrl.status = rtdomain.DetailedStatus{
		ConnectionStatus: rtdomain.ConnectionStatus{IsConnected: true},
		State:            rtdomain.StateOpen,
	}
	updated, _ = m.Update(m.pollCmd(0)())
	m = updated.(Model)
	if m.stats.Stats().Fallback {
		t.Error("fallback still shown after connecting")
	}
}
