package entities

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	tokenA = common.HexToAddress("0x0000000000000000000000000000000000000001")
	tokenB = common.HexToAddress("0x0000000000000000000000000000000000000002")
	tokenC = common.HexToAddress("0x0000000000000000000000000000000000000003")
)

func TestEncodePathRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		hops []Hop
	}{
		{
			name: "single hop",
			hops: []Hop{{TokenIn: tokenA, TokenOut: tokenB, Fee: 3000}},
		},
		{
			name: "two hops",
			hops: []Hop{
				{TokenIn: tokenA, TokenOut: tokenB, Fee: 3000},
				{TokenIn: tokenB, TokenOut: tokenC, Fee: 500},
			},
		},
		{
			name: "three hops mixed fees",
			hops: []Hop{
				{TokenIn: tokenA, TokenOut: tokenB, Fee: 100},
				{TokenIn: tokenB, TokenOut: tokenC, Fee: 10000},
				{TokenIn: tokenC, TokenOut: tokenA, Fee: 3000},
			},
		},
		{
			name: "token cycle",
			hops: []Hop{
				{TokenIn: tokenA, TokenOut: tokenB, Fee: 3000},
				{TokenIn: tokenB, TokenOut: tokenA, Fee: 500},
				{TokenIn: tokenA, TokenOut: tokenC, Fee: 3000},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := EncodePath(tt.hops)
			if err != nil {
				t.Fatalf("EncodePath() error = %v", err)
			}
			if want := addrSize + len(tt.hops)*hopOffset; len(p) != want {
				t.Errorf("len(path) = %d, want %d", len(p), want)
			}

			got, err := p.Hops()
			if err != nil {
				t.Fatalf("Hops() error = %v", err)
			}
			if len(got) != len(tt.hops) {
				t.Fatalf("Hops() count = %d, want %d", len(got), len(tt.hops))
			}
			for i := range got {
				if got[i] != tt.hops[i] {
					t.Errorf("hop[%d] = %+v, want %+v", i, got[i], tt.hops[i])
				}
			}
		})
	}
}

func TestEncodePathRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		hops []Hop
	}{
		{name: "empty", hops: nil},
		{
			name: "discontinuous",
			hops: []Hop{
				{TokenIn: tokenA, TokenOut: tokenB, Fee: 3000},
				{TokenIn: tokenC, TokenOut: tokenA, Fee: 3000},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EncodePath(tt.hops); err != ErrMalformedPath {
				t.Errorf("EncodePath() error = %v, want ErrMalformedPath", err)
			}
		})
	}
}

func TestPathValidate(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"empty", 0, true},
		{"bare address", addrSize, true},
		{"one hop", minPathSize, false},
		{"one hop truncated", minPathSize - 1, true},
		{"one hop with trailing byte", minPathSize + 1, true},
		{"two hops", minPathSize + hopOffset, false},
		{"fee only remainder", minPathSize + feeSize, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Path(make([]byte, tt.size))
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if _, err := p.Hops(); err != ErrMalformedPath {
					t.Errorf("Hops() error = %v, want ErrMalformedPath", err)
				}
			}
		})
	}
}

func TestPathNavigation(t *testing.T) {
	hops := []Hop{
		{TokenIn: tokenA, TokenOut: tokenB, Fee: 3000},
		{TokenIn: tokenB, TokenOut: tokenC, Fee: 500},
	}
	p, err := EncodePath(hops)
	if err != nil {
		t.Fatal(err)
	}

	if !p.HasMultipleHops() {
		t.Error("HasMultipleHops() = false, want true")
	}
	if got := p.FirstHop(); got != hops[0] {
		t.Errorf("FirstHop() = %+v, want %+v", got, hops[0])
	}
	if got := p.LastHop(); got != hops[1] {
		t.Errorf("LastHop() = %+v, want %+v", got, hops[1])
	}

	rest := p.SkipHop()
	if rest.HasMultipleHops() {
		t.Error("SkipHop().HasMultipleHops() = true, want false")
	}
	if got := rest.FirstHop(); got != hops[1] {
		t.Errorf("SkipHop().FirstHop() = %+v, want %+v", got, hops[1])
	}

	head := p.DropLastHop()
	if got := head.FirstHop(); got != hops[0] {
		t.Errorf("DropLastHop().FirstHop() = %+v, want %+v", got, hops[0])
	}
	if head.HasMultipleHops() {
		t.Error("DropLastHop().HasMultipleHops() = true, want false")
	}

	single, _ := EncodePath(hops[:1])
	if !bytes.Equal(p.FirstHopPath(), single) {
		t.Errorf("FirstHopPath() = %x, want %x", p.FirstHopPath(), single)
	}
}

func TestPathReverse(t *testing.T) {
	hops := []Hop{
		{TokenIn: tokenA, TokenOut: tokenB, Fee: 3000},
		{TokenIn: tokenB, TokenOut: tokenC, Fee: 500},
	}
	p, err := EncodePath(hops)
	if err != nil {
		t.Fatal(err)
	}

	rev := p.Reverse()
	if err := rev.Validate(); err != nil {
		t.Fatalf("Reverse() produced invalid path: %v", err)
	}

	// Reversed head is the last-traded hop, seen output-first.
	first := rev.FirstHop()
	if first.TokenIn != tokenC || first.TokenOut != tokenB || first.Fee != 500 {
		t.Errorf("Reverse().FirstHop() = %+v", first)
	}

	if !bytes.Equal(rev.Reverse(), p) {
		t.Errorf("Reverse().Reverse() = %x, want %x", rev.Reverse(), p)
	}
}
