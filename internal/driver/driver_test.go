package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/pixil98/go-testutil"
)

type countingManager struct {
	ticks int
	err   error
}

func (m *countingManager) Tick(context.Context) error {
	m.ticks++
	return m.err
}

func TestTickRunsAllManagers(t *testing.T) {
	m1 := &countingManager{}
	m2 := &countingManager{}
	d := NewDriver([]Manager{m1, m2})

	d.Tick(context.Background())
	d.Tick(context.Background())

	testutil.AssertEqual(t, "m1 ticks", m1.ticks, 2)
	testutil.AssertEqual(t, "m2 ticks", m2.ticks, 2)
}

func TestTickSurvivesManagerError(t *testing.T) {
	failing := &countingManager{err: errors.New("boom")}
	after := &countingManager{}
	d := NewDriver([]Manager{failing, after})

	d.Tick(context.Background())

	testutil.AssertEqual(t, "later manager still ran", after.ticks, 1)
}
