// Package campaign implements campaign lifecycle management up to the
// submission hand-off: creating and editing campaigns, attaching segments
// and explicit recipients, and marking a campaign prepared so the
// submission queue picks it up.
//
// The service depends on the repository interface defined in this package.
// The sending and sent flags belong to the submission engine and are never
// written here.
package campaign
