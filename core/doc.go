// Package core contains the contracts shared by every integration module:
// configuration, the error envelope, the token manager and its auth state
// machine, credential and entity stores, and the Definition/Manager pair a
// host uses to drive a vendor. Vendor and transport packages depend on core;
// core never depends on them.
package core
