package description

import (
	"math"
	"strings"

	"github.com/devdesc/devdesc-go/pkg/variant"
)

// cfmSize is the SUBMIT payload length of the chime/flash actuator.
const cfmSize = 14

// packCFM packs "VOLUME,REPETITIONS,DURATION,TONE1,TONE2,..." into the
// fixed chime/flash SUBMIT layout:
//
//	byte 0       volume * 200
//	byte 1       repetitions
//	bytes 2..11  tones
//	bytes 12..13 duration in 1/10 s as a tiny float
//
// An empty value or "0" packs all zeros.
func packCFM(literal string) []byte {
	out := make([]byte, cfmSize)
	if literal == "" || literal == "0" {
		return out
	}
	for i, field := range strings.Split(literal, ",") {
		if i >= cfmSize-1 {
			break
		}
		switch i {
		case 0:
			out[0] = byte(math.Round(200 * variant.Double(field)))
		case 1:
			out[1] = byte(variant.Number(field))
		case 2:
			tenths := int64(math.Round(variant.Double(field) * 10))
			time := minimalBigEndian(NewTinyFloat().pack(tenths))
			if len(time) == 1 {
				out[13] = time[0]
			} else {
				out[12], out[13] = time[len(time)-2], time[len(time)-1]
			}
		default:
			out[i-1] = byte(variant.Number(field))
		}
	}
	return out
}

// partySize is the party mode payload length of the radiator thermostat.
const partySize = 8

// packParty packs "TEMP,START_TIME,DAY,MONTH,YEAR,END_TIME,DAY,MONTH,YEAR"
// into the thermostat party mode layout. Times are minutes since midnight
// stored in half hours; both months share byte 7.
func packParty(literal string) []byte {
	out := make([]byte, partySize)
	if literal == "" {
		return out
	}
	for i, field := range strings.Split(literal, ",") {
		n := variant.Number(field)
		switch i {
		case 0:
			out[0] = byte(math.Round(2 * variant.Double(field)))
		case 1:
			out[1] = byte(n / 30)
		case 2:
			out[2] = byte(n)
		case 3:
			out[7] = byte(n << 4)
		case 4:
			out[3] = byte(n)
		case 5:
			out[4] = byte(n / 30)
		case 6:
			out[5] = byte(n)
		case 7:
			out[7] |= byte(n)
		case 8:
			out[6] = byte(n)
		}
	}
	return out
}
