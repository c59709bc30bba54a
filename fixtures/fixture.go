package fixtures

const FlagKey = "smart_outfits"
const UserID = "user-1"
const OtherUserID = "user-2"

const EvaluateResponseEnabledJson = `{"success": true, "flags": {"smart_outfits": true}}`
const EvaluateResponseDisabledJson = `{"success": true, "flags": {"smart_outfits": false}}`
const EvaluateResponseFailureJson = `{"success": false}`
const EvaluateResponseMissingFlagJson = `{"success": true, "flags": {"another_flag": true}}`
const EvaluateResponseWrongTypeJson = `{"success": true, "flags": {"smart_outfits": "yes"}}`
