package vmem

import "sync/atomic"

import "github.com/bnclabs/golog"

// logenable gates every log call below to an atomic check, the same switch
// bnclabs-gostore/bogn uses (its logok flag) to keep logging off the hot
// path until an application opts in.
var logenable = int64(0)

var log = golog.SetLogger(nil, map[string]interface{}{
	"log.level": "info",
	"log.file":  "",
})

// LogComponents turns on vmem's logging. Disabled by default; call with
// "vmem" or "all" to enable. Mirrors bogn.LogComponents.
func LogComponents(components ...string) {
	for _, comp := range components {
		switch comp {
		case "vmem", "all":
			atomic.StoreInt64(&logenable, 1)
		}
	}
}

func debugf(format string, v ...interface{}) {
	if atomic.LoadInt64(&logenable) > 0 {
		log.Debugf(format, v...)
	}
}

func infof(format string, v ...interface{}) {
	if atomic.LoadInt64(&logenable) > 0 {
		log.Infof(format, v...)
	}
}

func warnf(format string, v ...interface{}) {
	if atomic.LoadInt64(&logenable) > 0 {
		log.Warnf(format, v...)
	}
}

func errorf(format string, v ...interface{}) {
	if atomic.LoadInt64(&logenable) > 0 {
		log.Errorf(format, v...)
	}
}
