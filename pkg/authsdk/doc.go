/*
Package authsdk provides a client SDK for the authgate service.

The Client covers the full HTTP surface: invite management (create,
validate, list, revoke, cleanup), registration, login, logout and the
authenticated "me" lookup. Session state is held in the client's cookie
jar, including the CSRF token required for state-changing session
requests; stateless access tokens from login can be used as bearer
credentials instead.
*/
package authsdk
