package main

import (
	"flag"
	"log"

	"github.com/bitdao/governor/internal/services/engine"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// generates a voter key set (an ECDSA identity key and an ML-DSA-65 secondary
// key) and optionally signs the canonical vote message for a proposal, for
// driving the api by hand
func main() {
	proposal := flag.Uint64("proposal", 0, "proposal id to sign a vote for")

	sign := flag.Bool("sign", false, "sign the vote message for the generated voter")

	engaddr := flag.String("engine", "", "engine address")

	flag.Parse()

	log.Default().Println("generating...")
	log.Default().Println(" ")

	k, err := crypto.GenerateKey()
	if err != nil {
		log.Fatal(err)
	}

	voter := crypto.PubkeyToAddress(k.PublicKey)

	log.Default().Printf("voter address: %s\n", voter.Hex())
	log.Default().Printf("voter private key: %s\n", hexutil.Encode(crypto.FromECDSA(k)))

	scheme := mldsa65.Scheme()

	pub, priv, err := scheme.GenerateKey()
	if err != nil {
		log.Fatal(err)
	}

	pkb, err := pub.MarshalBinary()
	if err != nil {
		log.Fatal(err)
	}

	skb, err := priv.MarshalBinary()
	if err != nil {
		log.Fatal(err)
	}

	log.Default().Printf("secondary public key: %s\n", hexutil.Encode(pkb))
	log.Default().Printf("secondary private key: %s\n", hexutil.Encode(skb))

	if !*sign || *engaddr == "" {
		return
	}

	message := engine.VoteMessage(*proposal, voter, common.HexToAddress(*engaddr))

	sig := scheme.Sign(priv, message, nil)

	log.Default().Println(" ")
	log.Default().Printf("vote signature for proposal %d: %s\n", *proposal, hexutil.Encode(sig))
}
