// Package ruler is the client for the multi-tenant Ruler rules API.
//
// Every request is scoped to one tenant through the X-Scope-OrgID header and
// addresses a rule namespace:
//
//	POST   {base}/api/v1/rules/{namespace}          create or update a group
//	DELETE {base}/api/v1/rules/{namespace}/{group}  delete a group
//
// The Ruler answers both with 202 Accepted. Any other status, including other
// 2xx codes, is returned as an *UnexpectedStatusError; callers treat it as a
// terminal failure for the change being propagated.
package ruler
