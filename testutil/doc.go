/*
Package testutil provides fixtures for testing relay components.

It generates identities, DNS payloads and signed records so tests can focus
on relay behaviour rather than record construction:

	// A fresh identity
	pub, priv := testutil.GenerateTestKeyPair(t)

	// A valid signed record for that identity
	rec := testutil.GenerateTestRecord(t, priv)

	// A record with custom content or timestamp
	rec := testutil.GenerateTestRecord(t, priv,
	    testutil.WithTXT("relay=https://relay.example"),
	    testutil.WithTimestamp(time.Unix(1700000000, 0)),
	)

	// Records that must be rejected
	forged := testutil.ForgeSignature(rec)

This package is intended for testing purposes only and should not be used in
production code.
*/
package testutil
