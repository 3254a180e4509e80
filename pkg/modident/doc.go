// SPDX-License-Identifier: MPL-2.0

// Package modident models the identity of a loadable module.
//
// An identity is a simple name plus optional metadata: a numeric version of up to
// four components, a culture, and a public-key token. Identities are rendered and
// parsed using the runtime display-name form:
//
//	Contoso.Plugins, Version=1.2.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089
//
// Two identities are strongly equal when every field matches, and weakly equal when
// only their simple names match. The weakmatch package builds on the weak form.
package modident
