// Package cli implements gatectl, a small command-line client of the
// gateway. Each invocation runs one command; the token pair is kept in a
// local session database between invocations and rotated transparently.
//
// Commands:
//
//	login [email]          authenticate and store the session
//	logout                 revoke the current session
//	logout-all             revoke every session of the user
//	upload <path>          upload a file and print its signed URLs
//	get <id> [filename]    print signed URLs of an asset
//	download <id> <dest>   fetch an asset through its signed URL
//	delete <id>            delete an asset and its thumbnail
//	ping                   check that the gateway answers
//	hash-password          print a bcrypt hash for seeding users
package cli
