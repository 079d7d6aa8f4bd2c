// Package auth provides the authentication core for StartHub services: RSA
// signed bearer tokens, account registration with email confirmation, and
// password recovery backed by a single-use token ledger.
//
// Bearer tokens:
//   - TokenService issues RS256 JWTs from a KeyMaterial pair and validates
//     inbound tokens. Validation and claim extraction are one operation;
//     claims only exist once the signature and expiry have been checked.
//   - The authgate middleware protects HTTP routes, skipping configured
//     public prefixes and rejecting everything else with a uniform 401 body.
//
// One-time tokens:
//   - TokenLedger stores opaque single-use tokens for account confirmation
//     and password reset. A token is claimed with one conditional update, so
//     concurrent claims can never both succeed. Claims and their side effect
//     (activation, password overwrite) commit in the same transaction.
//
// Accounts:
//   - New registrations start inactive and receive a confirmation link.
//     UserProvider verifies credentials, enforces the login attempt cool
//     down, and rejects inactive or locked accounts.
package auth
