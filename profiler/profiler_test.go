package profiler

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStageTimerRecordsStages(t *testing.T) {
	timer := NewStageTimer()

	stop := timer.Start("load")
	time.Sleep(time.Millisecond)
	stop()

	assert.Greater(t, timer.Duration("load"), time.Duration(0))
	assert.Equal(t, time.Duration(0), timer.Duration("rotate"))
}

func TestStageTimerAccumulates(t *testing.T) {
	timer := NewStageTimer()

	for i := 0; i < 2; i++ {
		stop := timer.Start("rotate")
		time.Sleep(time.Millisecond)
		stop()
	}

	assert.GreaterOrEqual(t, timer.Duration("rotate"), 2*time.Millisecond)
	assert.Equal(t, timer.Duration("rotate"), timer.Total())
}

func TestStageTimerReportOrder(t *testing.T) {
	timer := NewStageTimer()
	for _, name := range []string{"load", "rotate", "save"} {
		timer.Start(name)()
	}

	report := timer.Report()
	assert.Less(t, strings.Index(report, "load="), strings.Index(report, "rotate="))
	assert.Less(t, strings.Index(report, "rotate="), strings.Index(report, "save="))
	assert.Contains(t, report, "total=")
}
