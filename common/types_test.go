package common

import (
	"testing"

	"github.com/NethermindEth/juno/core/felt"
)

func TestHashOutput_ZeroValueIsTheEmptyRoot(t *testing.T) {
	var hash HashOutput
	if !hash.IsEmpty() {
		t.Errorf("the zero hash should report empty")
	}
	if !hash.Equal(EmptyTreeRoot) {
		t.Errorf("the zero hash should equal the empty tree root")
	}
}

func TestHashOutput_FeltRoundTrip(t *testing.T) {
	value := new(felt.Felt).SetUint64(0xF00D)
	hash := HashFromFelt(value)
	if hash.IsEmpty() {
		t.Errorf("a non-zero hash should not report empty")
	}
	if !hash.AsFelt().Equal(value) {
		t.Errorf("wrong felt view, got %s, want %s", hash.AsFelt().String(), value.String())
	}
}

func TestHashOutput_BytesRoundTrip(t *testing.T) {
	original := HashFromFelt(new(felt.Felt).SetUint64(0xABCDEF))
	bytes := original.Bytes()
	restored := HashFromBytes(bytes[:])
	if !restored.Equal(original) {
		t.Errorf("round trip changed the hash, got %s, want %s",
			restored.String(), original.String())
	}
}

func TestHashOutput_EqualDistinguishesValues(t *testing.T) {
	a := HashFromFelt(new(felt.Felt).SetUint64(1))
	b := HashFromFelt(new(felt.Felt).SetUint64(2))
	if a.Equal(b) {
		t.Errorf("distinct hashes compare equal")
	}
}
