/*
Package schema defines the declarative model documents and loads them from disk.

A model document describes one persisted entity:

	definition:
	  name: post
	  plural: posts
	  description: Blog posts

	properties:
	  id:    { type: integer, isId: true }
	  title: { type: string, length: 120, required: true }
	  body:  text

	relations:
	  comments: { type: hasMany, model: comment }
	  author:   { type: belongsTo, model: user, foreignKey: authorId }

	routes:
	  - { route: /, method: create, handler: post, permission: authenticated }

# Property Types

  - string:  variable-length string (length defaults to 255)
  - text:    unbounded string
  - number:  integer
  - integer: integer
  - bigint:  64-bit integer
  - boolean: boolean
  - date:    timestamp, RFC 3339 in JSON
  - uuid:    36-character string, generated on create when absent

Unknown types are treated as string.

# Routes

Each entry in routes overrides the default route bound to the same operation.
The document keys keep their historical meaning: route is the path, method is
the operation name and handler is the HTTP verb.
*/
package schema
