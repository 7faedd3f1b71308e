package vmem

import s "github.com/bnclabs/gosettings"
import "github.com/cloudfoundry/gosigar"

// Defaultsettings returns baseline Arena configuration, the way
// malloc.Defaultsettings and bogn.Defaultsettings do in the teacher. "fit"
// picks the default fit policy Alloc() uses when a caller passes
// flags == 0; "hashsize" sizes the allocated-segment hash index.
func Defaultsettings() s.Settings {
	_, _, free := sysmem()
	capacity := int64(free)
	if capacity <= 0 {
		capacity = int64(1) << 32
	}
	return s.Settings{
		"fit":      "instant",
		"hashsize": int64(DefaultHashBuckets),
		"capacity": capacity,
		"quantum":  int64(4096),
	}
}

// sysmem reports total, used and free system memory, used only to seed
// Defaultsettings' capacity hint the way bogn.getsysmem seeds
// llrb.keycapacity/llrb.valcapacity. Callers that pass their own base/size
// to Create are unaffected by this.
func sysmem() (total, used, free uint64) {
	mem := sigar.Mem{}
	if err := mem.Get(); err != nil {
		return 0, 0, 0
	}
	return mem.Total, mem.Used, mem.Free
}

func fitFlag(setts s.Settings) int {
	if setts != nil && setts.String("fit") == "best" {
		return BestFit
	}
	return InstantFit
}

func hashsizeOf(setts s.Settings) int64 {
	if setts != nil {
		if v := setts.Int64("hashsize"); v > 0 {
			return v
		}
	}
	return DefaultHashBuckets
}
