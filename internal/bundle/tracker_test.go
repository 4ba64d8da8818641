package bundle

import (
	"context"
	"testing"
	"time"
)

type fakeStatusFetcher struct {
	bundleStatus    string
	bundleOK        bool
	inFlightStatus  string
	bundleStatusErr error
}

func (f *fakeStatusFetcher) GetBundleStatus(ctx context.Context, bundleID string) (string, bool, error) {
	return f.bundleStatus, f.bundleOK, f.bundleStatusErr
}

func (f *fakeStatusFetcher) GetInFlightBundleStatus(ctx context.Context, bundleID string) (string, error) {
	return f.inFlightStatus, nil
}

type fakeChainConfirmer struct {
	confirmed bool
	err       error
}

func (f *fakeChainConfirmer) ConfirmSignature(ctx context.Context, signature string) (bool, error) {
	return f.confirmed, f.err
}

func TestTrackConfirmsViaDirectChainProbe(t *testing.T) {
	sf := &fakeStatusFetcher{bundleStatus: "Pending"}
	cc := &fakeChainConfirmer{confirmed: true}

	ticket := Track(context.Background(), sf, cc, Ticket{BundleID: "b1", SwapSignature: "sig1"})

	if ticket.State != Confirmed {
		t.Errorf("expected Confirmed, got %s", ticket.State)
	}
}

func TestTrackConfirmsViaFinalizedBundleStatus(t *testing.T) {
	sf := &fakeStatusFetcher{bundleStatus: "Finalized", bundleOK: true}
	cc := &fakeChainConfirmer{confirmed: false}

	ticket := Track(context.Background(), sf, cc, Ticket{BundleID: "b2", SwapSignature: "sig2"})

	if ticket.State != Finalized {
		t.Errorf("expected Finalized, got %s", ticket.State)
	}
}

func TestTrackFailsOnFinalizedWithoutOK(t *testing.T) {
	sf := &fakeStatusFetcher{bundleStatus: "Finalized", bundleOK: false}
	cc := &fakeChainConfirmer{confirmed: false}

	ticket := Track(context.Background(), sf, cc, Ticket{BundleID: "b3", SwapSignature: "sig3"})

	if ticket.State != Failed {
		t.Errorf("expected Failed, got %s", ticket.State)
	}
}

func TestTrackFailsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	sf := &fakeStatusFetcher{bundleStatus: "Pending"}
	cc := &fakeChainConfirmer{confirmed: false}

	ticket := Track(ctx, sf, cc, Ticket{BundleID: "b4", SwapSignature: "sig4"})

	if ticket.State != Failed {
		t.Errorf("expected Failed on context cancellation, got %s", ticket.State)
	}
}

func TestStateTerminal(t *testing.T) {
	terminal := []State{Confirmed, Finalized, Failed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	nonTerminal := []State{Pending, Landed}
	for _, s := range nonTerminal {
		if s.Terminal() {
			t.Errorf("expected %s to not be terminal", s)
		}
	}
}
