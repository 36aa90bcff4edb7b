package event

import "testing"

func TestIdentity(t *testing.T) {
	tests := []struct {
		name     string
		txHash   string
		logIndex int64
		address  string
		vendorID string
		want     string
	}{
		{
			name:     "tx hash and log index",
			txHash:   "0xABCDEF",
			logIndex: 5,
			address:  "0xcontract",
			vendorID: "vendor-1",
			want:     "0xabcdef-5",
		},
		{
			name:     "zero log index is valid",
			txHash:   "0xabc",
			logIndex: 0,
			want:     "0xabc-0",
		},
		{
			name:     "falls back to address without log index",
			txHash:   "0xABC",
			logIndex: -1,
			address:  "0xCONTRACT",
			vendorID: "vendor-1",
			want:     "0xabc-0xcontract",
		},
		{
			name:     "falls back to vendor id",
			logIndex: -1,
			vendorID: "vendor-1",
			want:     "vendor-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Identity(tt.txHash, tt.logIndex, tt.address, tt.vendorID)
			if got != tt.want {
				t.Errorf("Identity() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogDecodable(t *testing.T) {
	tests := []struct {
		name string
		log  Log
		want bool
	}{
		{
			name: "topics and data",
			log:  Log{Topics: []string{"0xaa"}, Data: "0x1234"},
			want: true,
		},
		{
			name: "empty data payload still counts",
			log:  Log{Topics: []string{"0xaa"}, Data: "0x"},
			want: true,
		},
		{
			name: "no topics",
			log:  Log{Data: "0x1234"},
			want: false,
		},
		{
			name: "no data",
			log:  Log{Topics: []string{"0xaa"}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.log.Decodable(); got != tt.want {
				t.Errorf("Decodable() = %v, want %v", got, tt.want)
			}
		})
	}
}
