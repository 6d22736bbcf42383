package payment_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/impulse-eee/impulse-api/internal/payment"
)

func TestComputeSignatureIsHexHMAC(t *testing.T) {
	sig := payment.ComputeSignature("s3cr3t", "order_abc", "pay_xyz")
	require.Len(t, sig, 64)
	require.Equal(t, strings.ToLower(sig), sig)

	// deterministic for the same inputs
	require.Equal(t, sig, payment.ComputeSignature("s3cr3t", "order_abc", "pay_xyz"))

	// any input change produces a different signature
	require.NotEqual(t, sig, payment.ComputeSignature("s3cr3t", "order_abd", "pay_xyz"))
	require.NotEqual(t, sig, payment.ComputeSignature("s3cr3t", "order_abc", "pay_xyz2"))
	require.NotEqual(t, sig, payment.ComputeSignature("other", "order_abc", "pay_xyz"))
}

func TestVerifySignatureAcceptsComputed(t *testing.T) {
	sig := payment.ComputeSignature("s3cr3t", "order_abc", "pay_xyz")
	require.True(t, payment.VerifySignature("s3cr3t", "order_abc", "pay_xyz", sig))
}

func TestVerifySignatureCanonicalisesHexCase(t *testing.T) {
	sig := payment.ComputeSignature("s3cr3t", "order_abc", "pay_xyz")
	require.True(t, payment.VerifySignature("s3cr3t", "order_abc", "pay_xyz", strings.ToUpper(sig)))
}

func TestVerifySignatureRejectsTruncated(t *testing.T) {
	sig := payment.ComputeSignature("s3cr3t", "order_abc", "pay_xyz")
	require.False(t, payment.VerifySignature("s3cr3t", "order_abc", "pay_xyz", sig[:len(sig)-1]))
}

func TestVerifySignatureRejectsBitFlip(t *testing.T) {
	sig := payment.ComputeSignature("s3cr3t", "order_abc", "pay_xyz")
	flipped := []byte(sig)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}
	require.False(t, payment.VerifySignature("s3cr3t", "order_abc", "pay_xyz", string(flipped)))
}

func TestVerifySignatureRejectsGarbage(t *testing.T) {
	require.False(t, payment.VerifySignature("s3cr3t", "order_abc", "pay_xyz", ""))
	require.False(t, payment.VerifySignature("s3cr3t", "order_abc", "pay_xyz", "not-hex-at-all"))
}
