// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package idle

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// PollTickMsg is the coarse monitoring tick. Gen is the engine generation
// it was scheduled under; the engine drops it if stale.
type PollTickMsg struct {
	Gen  uint64
	Time time.Time
}

// CountdownTickMsg is the 1Hz warning tick.
type CountdownTickMsg struct {
	Gen  uint64
	Time time.Time
}

// PollCmd schedules the next coarse tick for the given generation.
func (e *Engine) PollCmd(gen uint64) tea.Cmd {
	return tea.Tick(e.PollInterval(), func(t time.Time) tea.Msg {
		return PollTickMsg{Gen: gen, Time: t}
	})
}

// CountdownCmd schedules the next 1Hz countdown tick for the given
// generation.
func (e *Engine) CountdownCmd(gen uint64) tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return CountdownTickMsg{Gen: gen, Time: t}
	})
}
