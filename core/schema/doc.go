/*
Package schema defines the resolved form of a DataLang source.

A Schema is produced by the composition resolver and consumed by the emitters.
Every entity carries its final, de-duplicated field list in include order:

	term Name {}
	term Person has {
	    +Name
	    +Lastname
	}

resolves to

	Name   = {name}
	Person = {name, lastname}

# Constraints

Fields declared in the attributed form may carry constraints:

	User {
	    #[length < 10]
	    name
	}

Supported constraint types:

  - length:    string length in runes compared with <, <=, >, >= or ==
  - not_empty: value must contain a non-whitespace character

Validate checks a resolved schema and reports every violation at once.
*/
package schema
