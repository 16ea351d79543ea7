/*
Package cipher decodes YouTube signature cipher tokens.

Formats in the adaptive catalog that carry a signatureCipher instead of a
url must have their signature transformed before the media URL is playable.
The transforms currently in force live in the versioned player script
(base.js); this package mines them from the script text and replays them.

# Mining

Miner.Mine works in five steps over the script text:

 1. The entry point is the function called as NAME(decodeURIComponent(...)).
 2. Its body is taken from "NAME=function(a){...}" or "function NAME(a){...}".
    Only a single brace level is matched, so nested blocks truncate the body.
 3. Calls shaped name(a,N) or obj.name(a,N) are listed in order of appearance.
    N, the explicit second parameter, is the call argument.
 4. Each called name is looked up as an object property "name:function(a,b){...}".
 5. The declaration is classified: a splice is Slice, an index-modulo-length
    exchange is Swap, and a missing two-argument declaration is Reverse.

Names that match none of the above are reported in MineResult.Unresolved and
left out of the Program. With a jsengine.Engine configured, such declarations
are run on a probe input and classified by what they did to it.

# Replay

Interpret is pure: it takes the decoded token, strips the "s=" prefix from
its first segment, applies the Program and appends "&sig=<signature>" to the
text after "&url=".

	res, err := cipher.Mine(playerJS)
	if err != nil {
		return err
	}
	if !res.Complete() {
		// some calls were skipped; the signature may be wrong
	}
	link, err := cipher.Interpret(cipher.DecodeToken(format.SignatureCipher), res.Program)

Decoder combines both with a rulecache.Cache keyed by the script content hash
and an optional strict mode that fails with errs.ErrPartialCoverage.

# Error Codes

  - PLAYER_JS_NOT_FOUND: player.js URL not found in video page
  - PLAYER_JS_DOWNLOAD_FAILED: failed to download player.js
  - ENTRY_POINT_NOT_FOUND: decipher entry point or its body not found
  - PARTIAL_COVERAGE: strict mode met unclassified calls
  - SIGNATURE_MISSING: format has neither url nor usable token
  - JS_EXECUTION_FAILED: JavaScript execution error

Errors unwrap to the matching errs sentinel, so errors.Is works across
packages.

# Thread Safety

Mine, Interpret and Program.Apply hold no shared state. A Decoder may be
shared between goroutines when its Cache is safe for concurrent use, which
all rulecache backends are.
*/
package cipher
